package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

// Category is one entry of the notes.json categories array.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Notes is the notes.json metadata document. Info is kept as raw JSON so it
// is carried over verbatim between datasets.
type Notes struct {
	Categories []Category      `json:"categories"`
	Info       json.RawMessage `json:"info,omitempty"`
}

// HasInfo reports whether the document carries a usable info block.
func (n Notes) HasInfo() bool {
	trimmed := bytes.TrimSpace(n.Info)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func NewNotes(names []string, info json.RawMessage) *Notes {
	categories := make([]Category, len(names))
	for i, n := range names {
		categories[i] = Category{ID: i, Name: n}
	}
	return &Notes{Categories: categories, Info: info}
}

// LoadNotes reads dir/notes.json. A missing file is not an error.
func LoadNotes(fs afero.Fs, dir string) (*Notes, bool, error) {
	b, err := afero.ReadFile(fs, filepath.Join(dir, utils.NotesJSON))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	notes := new(Notes)
	if err := json.Unmarshal(b, notes); err != nil {
		return nil, false, err
	}
	return notes, true, nil
}

func SaveNotes(fs afero.Fs, dir string, notes *Notes) error {
	b, err := json.MarshalIndent(notes, "", "    ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, filepath.Join(dir, utils.NotesJSON), b, os.ModePerm)
}

// LoadClasses reads the ordered class list of dir/classes.txt. A missing
// file is not an error and yields no classes. Trailing blank lines are
// ignored; interior ones keep their index.
func LoadClasses(fs afero.Fs, dir string) ([]string, bool, error) {
	b, err := afero.ReadFile(fs, filepath.Join(dir, utils.ClassesTxt))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	lines := utils.SplitLines(b)
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	classes := make([]string, len(lines))
	for i, l := range lines {
		classes[i] = strings.TrimSpace(l)
	}
	return classes, true, nil
}

func SaveClasses(fs afero.Fs, dir string, names []string) error {
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('\n')
	}
	return afero.WriteFile(fs, filepath.Join(dir, utils.ClassesTxt), []byte(b.String()), os.ModePerm)
}
