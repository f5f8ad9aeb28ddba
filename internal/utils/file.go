package utils

import (
	"path/filepath"
	"strings"
)

const (
	ImagesDir  = "images"
	LabelsDir  = "labels"
	LabelExt   = ".txt"
	ClassesTxt = "classes.txt"
	NotesJSON  = "notes.json"
	DataYAML   = "data.yaml"
)

// DefaultImageExts is the image allow-list used when none is configured.
var DefaultImageExts = []string{".jpg", ".jpeg", ".png"}

func ChangeFileExt(src, ext string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ext
}

// Filename return filename (without extension) from path
func Filename(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RealFilename return combination with filename and extension
func RealFilename(str, ext string) string {
	return str + ext
}

// LabelFilename returns the label filename paired with an image filename.
func LabelFilename(image string) string {
	return RealFilename(Filename(image), LabelExt)
}

func LabelPath(dir, filename string, split ...Split) string {
	if len(split) > 0 {
		return filepath.Join(dir, LabelsDir, string(split[0]), filename)
	}
	return filepath.Join(dir, LabelsDir, filename)
}

func ImagePath(dir, filename string, split ...Split) string {
	if len(split) > 0 {
		return filepath.Join(dir, ImagesDir, string(split[0]), filename)
	}
	return filepath.Join(dir, ImagesDir, filename)
}

// SplitDirs returns the six images/labels split directories of a dataset.
func SplitDirs(dir string) []string {
	dirs := make([]string, 0, 2*len(Splits))
	for _, s := range Splits {
		dirs = append(dirs,
			filepath.Join(dir, ImagesDir, string(s)),
			filepath.Join(dir, LabelsDir, string(s)),
		)
	}
	return dirs
}

// HasExt reports whether name ends with one of exts, ignoring case.
func HasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
