package services

import (
	"io"
	"os"
	"path/filepath"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/spf13/afero"
)

// pickFs returns the first given filesystem, or the OS filesystem.
func pickFs(fs []afero.Fs) afero.Fs {
	if len(fs) > 0 && fs[0] != nil {
		return fs[0]
	}
	return afero.NewOsFs()
}

func pickConfig(conf *config.Config) *config.Config {
	if conf == nil {
		return config.Default()
	}
	return conf
}

// copyFile copies one regular file, keeping its modification time.
func copyFile(fs afero.Fs, from, to string) (err error) {
	src, err := fs.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	dst, err := fs.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			fs.Remove(to)
		}
	}()

	if _, err = io.Copy(dst, src); err != nil {
		return err
	}

	return fs.Chtimes(to, info.ModTime(), info.ModTime())
}

// mkdirAll creates every directory in dirs, stopping at the first failure.
func mkdirAll(fs afero.Fs, dirs ...string) error {
	for _, d := range dirs {
		if err := fs.MkdirAll(d, os.ModePerm); err != nil {
			return err
		}
	}
	return nil
}

// regularFiles lists the non-directory entries of dir, sorted by name.
func regularFiles(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func workerCount(conf *config.Config) int {
	if conf.Workers < 1 {
		return 1
	}
	return conf.Workers
}
