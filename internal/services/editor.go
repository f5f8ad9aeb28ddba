package services

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// EditResult summarizes a bulk label edit. Paths are relative to the
// dataset root.
type EditResult struct {
	Modified []string
	Removed  []string
	Errors   error
}

// LabelEditor applies class-level edits across every label of a dataset.
// Any label left without records is deleted together with its image.
type LabelEditor struct {
	fs   afero.Fs
	conf *config.Config
}

func NewLabelEditor(conf *config.Config, fs ...afero.Fs) *LabelEditor {
	return &LabelEditor{fs: pickFs(fs), conf: pickConfig(conf)}
}

// RemoveClasses drops every record whose class is in classes.
func (e LabelEditor) RemoveClasses(dataset string, classes []int) (*EditResult, error) {
	drop := make(map[int]bool, len(classes))
	for _, c := range classes {
		drop[c] = true
	}

	return e.edit(dataset, true, func(rec utils.LabelRecord) (utils.LabelRecord, bool) {
		return rec, !drop[rec.Class]
	})
}

// ChangeClass rewrites class index from to index to.
func (e LabelEditor) ChangeClass(dataset string, from, to int) (*EditResult, error) {
	if from < 0 || to < 0 {
		return nil, utils.NewException(utils.ErrParseFailed, nil, "class ids must be non-negative")
	}

	return e.edit(dataset, false, func(rec utils.LabelRecord) (utils.LabelRecord, bool) {
		if rec.Class == from {
			rec.Class = to
		}
		return rec, true
	})
}

// PruneEmpty deletes every label without records and its image.
func (e LabelEditor) PruneEmpty(dataset string) (*EditResult, error) {
	return e.edit(dataset, true, func(rec utils.LabelRecord) (utils.LabelRecord, bool) {
		return rec, true
	})
}

// RemovePair deletes the label at rel (relative to the dataset root) and the
// image with the same basename in the matching images folder.
func (e LabelEditor) RemovePair(dataset, rel string) error {
	var (
		labelPath = filepath.Join(dataset, filepath.FromSlash(rel))
		labelsRel = strings.TrimPrefix(filepath.ToSlash(rel), utils.LabelsDir+"/")
		imageDir  = filepath.Join(dataset, utils.ImagesDir, filepath.Dir(filepath.FromSlash(labelsRel)))
		stem      = utils.Filename(labelPath)
		errs      error
	)

	if err := e.fs.Remove(labelPath); err != nil && !os.IsNotExist(err) {
		errs = multierr.Append(errs, err)
	}

	if image, ok := e.findImage(imageDir, stem); ok {
		if err := e.fs.Remove(image); err != nil {
			errs = multierr.Append(errs, err)
		}
	} else {
		log.Debug().Str("Label", rel).Msg("No image paired with removed label")
	}

	return errs
}

func (e LabelEditor) findImage(dir, stem string) (string, bool) {
	for _, ext := range e.conf.ImageExts {
		for _, candidate := range []string{ext, strings.ToUpper(ext)} {
			path := filepath.Join(dir, stem+candidate)
			if ok, _ := afero.Exists(e.fs, path); ok {
				return path, true
			}
		}
	}
	return "", false
}

// edit runs fn over every record of every label under dataset/labels. A
// record is kept when fn returns true. Only changed files are rewritten.
func (e LabelEditor) edit(dataset string, prune bool, fn func(utils.LabelRecord) (utils.LabelRecord, bool)) (*EditResult, error) {
	root := filepath.Join(dataset, utils.LabelsDir)
	if ok, err := afero.DirExists(e.fs, root); err != nil || !ok {
		return nil, utils.NewException(utils.ErrNotFound, err, "labels folder of "+dataset)
	}

	result := new(EditResult)
	err := afero.Walk(e.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			result.Errors = multierr.Append(result.Errors, err)
			return nil
		}
		if info.IsDir() || filepath.Ext(path) != utils.LabelExt {
			return nil
		}

		rel := relPath(dataset, path)
		body, err := afero.ReadFile(e.fs, path)
		if err != nil {
			result.Errors = multierr.Append(result.Errors, err)
			return nil
		}

		lines, changed := editRecords(body, fn)
		if len(lines) == 0 && prune {
			if err := e.RemovePair(dataset, rel); err != nil {
				result.Errors = multierr.Append(result.Errors, err)
				return nil
			}
			result.Removed = append(result.Removed, rel)
			return nil
		}
		if !changed {
			return nil
		}

		if err := afero.WriteFile(e.fs, path, joinLines(lines), 0o644); err != nil {
			result.Errors = multierr.Append(result.Errors, err)
			return nil
		}
		result.Modified = append(result.Modified, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(result.Modified)
	sort.Strings(result.Removed)
	log.Info().Str("Dataset", dataset).Int("Modified", len(result.Modified)).
		Int("Removed", len(result.Removed)).Msg("Labels edited")
	return result, nil
}

// editRecords applies fn to each parsable record. Unparsable lines are
// kept verbatim so edits never lose data they do not understand.
func editRecords(body []byte, fn func(utils.LabelRecord) (utils.LabelRecord, bool)) ([]string, bool) {
	var (
		lines   []string
		changed bool
	)

	for _, line := range utils.SplitLines(body) {
		rec, ok, err := utils.ParseLabelLine(line)
		if err != nil {
			lines = append(lines, strings.TrimSpace(line))
			continue
		}
		if !ok {
			continue
		}

		out, keep := fn(rec)
		if !keep {
			changed = true
			continue
		}
		if out != rec {
			changed = true
		}
		lines = append(lines, out.String())
	}

	return lines, changed
}

func joinLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}
