package config

import "github.com/spf13/pflag"

// flagKeys maps persistent CLI flags onto config keys.
var flagKeys = map[string]string{
	"workers":     "workers",
	"source-root": "source_root",
	"merged-root": "merged_root",
	"dest-root":   "dest_root",
	"seed":        "split.seed",
}

// BindFlags registers the flags shared by every command.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("config", "config.yaml", "config file path")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.Int("workers", 8, "number of file workers")
	flags.String("source-root", ".", "directory holding the exported project datasets")
	flags.String("merged-root", "Dataset_merged", "directory searched for merged datasets")
	flags.String("dest-root", "Dataset_merged", "directory receiving merged datasets")
	flags.Int64("seed", 0, "split shuffle seed (0 seeds from the clock)")
}

// ParseArgs returns the config file path selected on the command line.
func ParseArgs(flags *pflag.FlagSet) string {
	conf, err := flags.GetString("config")
	if err != nil || conf == "" {
		return "config.yaml"
	}
	return conf
}
