package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	osFs    = afero.NewOsFs()
	conf    *config.Config
	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:               "dsmerge",
	Short:             "Merge, split and report YOLO datasets exported per project",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func main() {
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(reportResolutionCmd)
	rootCmd.AddCommand(resolutionsCmd)
	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(removeClassesCmd)
	rootCmd.AddCommand(changeClassCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup opens the log file and loads the configuration before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	// Generate log filename according to timestamp
	logFilename := fmt.Sprintf("logs_merger_%s.log", time.Now().Format("2006-01-02_15-04-05"))
	f, err := os.OpenFile(logFilename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed create log file: %w", err)
	}
	logFile = f

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr}, f)).With().Timestamp().Logger()

	flags := cmd.Flags()
	if level, _ := flags.GetString("log-level"); level != "" {
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		zerolog.SetGlobalLevel(lvl)
	}

	configPath := config.ParseArgs(flags)
	conf, err = config.LoadConfig(osFs, configPath, flags)
	if err != nil {
		log.Error().Err(err).Msg("Failed load config")
		return err
	}
	log.Info().Str("Path", configPath).Msg("Load config file")
	log.Debug().Str("Config", conf.String()).Msg("Config loaded")
	return nil
}
