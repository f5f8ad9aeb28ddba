package services

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/spf13/afero"
)

func testConfig() *config.Config {
	conf := config.Default()
	conf.SourceRoot = "/exports"
	conf.MergedRoot = "/merged"
	conf.DestRoot = "/merged"
	conf.Workers = 4
	conf.Split.Seed = 7
	return conf
}

// osTestFs is a real filesystem rooted in a temp dir, for directory renames.
func osTestFs(t *testing.T) afero.Fs {
	t.Helper()
	return afero.NewBasePathFs(afero.NewOsFs(), t.TempDir())
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func exists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	return ok
}

// pair is an image stem and its label content.
type pair struct {
	stem  string
	label string
}

// makeProject writes a split dataset with classes.txt and one jpg per pair.
func makeProject(t *testing.T, fs afero.Fs, dir string, classes []string, splits map[utils.Split][]pair) {
	t.Helper()
	if classes != nil {
		writeFile(t, fs, filepath.Join(dir, utils.ClassesTxt), strings.Join(classes, "\n")+"\n")
	}
	for split, pairs := range splits {
		for _, p := range pairs {
			writeFile(t, fs, utils.ImagePath(dir, p.stem+".jpg", split), "image:"+p.stem)
			writeFile(t, fs, utils.LabelPath(dir, p.stem+".txt", split), p.label)
		}
	}
}
