package config

import (
	"errors"
	"testing"

	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

const sampleConfig = `
source_root: exports
dest_root: merged
workers: 3
image_exts: [JPG, png]
prune_empty: false
split:
  train: 0.7
  val: 0.2
  test: 0.1
  seed: 42
class_aliases:
  car: [van, automobile]
info:
  year: 2024
  contributor: Team
`

func TestLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "config.yaml", []byte(sampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	conf, err := LoadConfig(fs, "config.yaml", nil)
	if err != nil {
		t.Fatal(err)
	}

	if conf.SourceRoot != "exports" || conf.DestRoot != "merged" {
		t.Errorf("roots = %q, %q", conf.SourceRoot, conf.DestRoot)
	}
	if conf.MergedRoot != "Dataset_merged" {
		t.Errorf("MergedRoot default = %q", conf.MergedRoot)
	}
	if conf.Workers != 3 {
		t.Errorf("Workers = %d", conf.Workers)
	}
	if conf.PruneEmpty {
		t.Error("PruneEmpty should be false")
	}
	if len(conf.ImageExts) != 2 || conf.ImageExts[0] != ".jpg" || conf.ImageExts[1] != ".png" {
		t.Errorf("ImageExts = %v", conf.ImageExts)
	}
	if conf.Split.Train != 0.7 || conf.Split.Val != 0.2 || conf.Split.Test != 0.1 || conf.Split.Seed != 42 {
		t.Errorf("Split = %+v", conf.Split)
	}
	if got := conf.Aliases().Key("Van"); got != "car" {
		t.Errorf("alias Key(Van) = %q", got)
	}
	if conf.Report.Resolution != "3840x2160" {
		t.Errorf("Report.Resolution = %q", conf.Report.Resolution)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	conf, err := LoadConfig(afero.NewMemMapFs(), "nope.yaml", nil)
	if err != nil {
		t.Fatal(err)
	}
	if conf.SourceRoot != "." || conf.FinalName != "Dataset" || !conf.PruneEmpty {
		t.Errorf("unexpected defaults: %s", conf)
	}
	if err := conf.Split.Validate(); err != nil {
		t.Errorf("default ratios invalid: %v", err)
	}
}

func TestLoadConfigEnvAndFlags(t *testing.T) {
	t.Setenv("DSMERGE_WORKERS", "5")
	t.Setenv("DSMERGE_SPLIT_SEED", "9")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	if err := flags.Parse([]string{"--source-root", "from-flag"}); err != nil {
		t.Fatal(err)
	}

	conf, err := LoadConfig(afero.NewMemMapFs(), ParseArgs(flags), flags)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Workers != 5 {
		t.Errorf("Workers = %d, want env override 5", conf.Workers)
	}
	if conf.Split.Seed != 9 {
		t.Errorf("Seed = %d, want env override 9", conf.Split.Seed)
	}
	if conf.SourceRoot != "from-flag" {
		t.Errorf("SourceRoot = %q, want flag value", conf.SourceRoot)
	}
	if conf.DestRoot != "Dataset_merged" {
		t.Errorf("unchanged flag must not override default, DestRoot = %q", conf.DestRoot)
	}
}

func TestSplitRatiosValidate(t *testing.T) {
	tests := []struct {
		name   string
		ratios SplitRatios
		ok     bool
	}{
		{"default", SplitRatios{0.8, 0.1, 0.1}, true},
		{"thirds", SplitRatios{1.0 / 3, 1.0 / 3, 1.0 / 3}, true},
		{"all train", SplitRatios{1, 0, 0}, true},
		{"short", SplitRatios{0.7, 0.1, 0.1}, false},
		{"over", SplitRatios{0.8, 0.2, 0.1}, false},
		{"negative", SplitRatios{1.2, -0.1, -0.1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ratios.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if !tt.ok && !errors.Is(err, utils.ErrInvalidRatios) {
				t.Fatalf("Validate() = %v, want ErrInvalidRatios", err)
			}
		})
	}
}
