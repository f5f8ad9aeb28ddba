package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DSMERGE"

// SplitRatios are the train/val/test fractions of a split.
type SplitRatios struct {
	Train float64 `mapstructure:"train" yaml:"train" json:"train"`
	Val   float64 `mapstructure:"val" yaml:"val" json:"val"`
	Test  float64 `mapstructure:"test" yaml:"test" json:"test"`
}

// Validate rejects negative ratios and ratios that do not sum to 1.
func (r SplitRatios) Validate() error {
	if r.Train < 0 || r.Val < 0 || r.Test < 0 {
		return utils.NewException(utils.ErrInvalidRatios, nil, fmt.Sprintf("negative ratio in %+v", r))
	}
	if sum := r.Train + r.Val + r.Test; math.Abs(sum-1) > 1e-6 {
		return utils.NewException(utils.ErrInvalidRatios, nil, fmt.Sprintf("ratios sum to %g, want 1", sum))
	}
	return nil
}

type SplitConfig struct {
	SplitRatios `mapstructure:",squash" yaml:",inline"`
	Seed        int64 `mapstructure:"seed" yaml:"seed" json:"seed"`
}

type ReportConfig struct {
	Resolution string `mapstructure:"resolution" yaml:"resolution" json:"resolution"`
}

type Config struct {
	SourceRoot   string                 `mapstructure:"source_root" yaml:"source_root" json:"source_root"`
	MergedRoot   string                 `mapstructure:"merged_root" yaml:"merged_root" json:"merged_root"`
	DestRoot     string                 `mapstructure:"dest_root" yaml:"dest_root" json:"dest_root"`
	FinalName    string                 `mapstructure:"final_name" yaml:"final_name" json:"final_name"`
	NamePrefix   string                 `mapstructure:"name_prefix" yaml:"name_prefix" json:"name_prefix"`
	Workers      int                    `mapstructure:"workers" yaml:"workers" json:"workers"`
	ImageExts    []string               `mapstructure:"image_exts" yaml:"image_exts" json:"image_exts"`
	PruneEmpty   bool                   `mapstructure:"prune_empty" yaml:"prune_empty" json:"prune_empty"`
	Split        SplitConfig            `mapstructure:"split" yaml:"split" json:"split"`
	Report       ReportConfig           `mapstructure:"report" yaml:"report" json:"report"`
	Info         map[string]interface{} `mapstructure:"info" yaml:"info" json:"info"`
	ClassAliases map[string][]string    `mapstructure:"class_aliases" yaml:"class_aliases" json:"class_aliases"`
}

func (c Config) String() string {
	j, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(j)
}

// Aliases returns the class alias table used when reconciling taxonomies.
func (c Config) Aliases() utils.ClassNameSync {
	return utils.NewClassNameSync(c.ClassAliases)
}

// InfoJSON returns the configured default info block of notes.json.
func (c Config) InfoJSON() json.RawMessage {
	info := c.Info
	if len(info) == 0 {
		info = defaultInfo()
	}
	b, err := json.Marshal(info)
	if err != nil {
		b, _ = json.Marshal(defaultInfo())
	}
	return b
}

func defaultInfo() map[string]interface{} {
	return map[string]interface{}{
		"year":        2025,
		"version":     "1.0",
		"contributor": "Label Studio",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_root", ".")
	v.SetDefault("merged_root", "Dataset_merged")
	v.SetDefault("dest_root", "Dataset_merged")
	v.SetDefault("final_name", "Dataset")
	v.SetDefault("name_prefix", "Dataset_")
	v.SetDefault("workers", 8)
	v.SetDefault("image_exts", utils.DefaultImageExts)
	v.SetDefault("prune_empty", true)
	v.SetDefault("split.train", 0.8)
	v.SetDefault("split.val", 0.1)
	v.SetDefault("split.test", 0.1)
	v.SetDefault("split.seed", 0)
	v.SetDefault("report.resolution", "3840x2160")
	v.SetDefault("info", defaultInfo())
	v.SetDefault("class_aliases", map[string][]string{})
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	conf, err := LoadConfig(afero.NewMemMapFs(), "", nil)
	if err != nil {
		// defaults alone always decode
		panic(err)
	}
	return conf
}

// LoadConfig reads path from fs (a missing file leaves the defaults), applies
// DSMERGE_* environment overrides and any changed flags.
func LoadConfig(fs afero.Fs, path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if path != "" {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return nil, err
		}
		if exists {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else {
			log.Warn().Str("Path", path).Msg("Config file not found, using defaults")
		}
	}

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, err
	}
	conf.normalize()

	return conf, nil
}

func (c *Config) normalize() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if len(c.ImageExts) == 0 {
		c.ImageExts = append([]string(nil), utils.DefaultImageExts...)
	}
	for i, e := range c.ImageExts {
		e = strings.ToLower(strings.TrimSpace(e))
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		c.ImageExts[i] = e
	}
}
