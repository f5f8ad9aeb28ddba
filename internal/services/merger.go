package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

type MergeResult struct {
	Path       string
	Resolved   []Source
	Unresolved []int
	Copied     CopyStats
	Reconcile  *ReconcileResult
	// Pruned lists the label files emptied by reconciliation that were
	// deleted together with their images.
	Pruned []string
	Errors error
}

// Merger combines several project datasets into one with a unified
// taxonomy. The result is built in a hidden staging folder next to its
// final location and renamed into place once complete.
type Merger struct {
	fs         afero.Fs
	conf       *config.Config
	locator    *Locator
	reconciler *Reconciler
	editor     *LabelEditor
	suffix     func() string
}

func NewMerger(conf *config.Config, fs ...afero.Fs) *Merger {
	conf = pickConfig(conf)
	f := pickFs(fs)
	return &Merger{
		fs:         f,
		conf:       conf,
		locator:    NewLocator(conf, f),
		reconciler: NewReconciler(conf, f),
		editor:     NewLabelEditor(conf, f),
		suffix:     randomSuffix,
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
}

// DestinationName is "<final_name>_<id1>_<id2>..._<suffix>".
func (m *Merger) DestinationName(ids []int) string {
	parts := make([]string, 0, len(ids)+2)
	parts = append(parts, m.conf.FinalName)
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	parts = append(parts, m.suffix())
	return strings.Join(parts, utils.IDDelimiter)
}

// Resolve locates every project id, keeping order and dropping duplicates.
func (m *Merger) Resolve(projectIDs []int) (resolved []Source, unresolved []int) {
	seen := make(map[int]bool, len(projectIDs))
	for _, id := range projectIDs {
		if seen[id] {
			log.Warn().Int("Project", id).Msg("Duplicate project id ignored")
			continue
		}
		seen[id] = true

		path, err := m.locator.LocateProject(id)
		if err != nil {
			unresolved = append(unresolved, id)
			continue
		}
		resolved = append(resolved, Source{ProjectID: id, Path: path})
	}
	return resolved, unresolved
}

// Merge merges the datasets of projectIDs, in that order, into a new
// dataset under the destination root and returns its path.
func (m *Merger) Merge(projectIDs []int) (*MergeResult, error) {
	result := new(MergeResult)
	result.Resolved, result.Unresolved = m.Resolve(projectIDs)

	if len(result.Unresolved) > 0 {
		log.Warn().Ints("Ids", result.Unresolved).Msg("Invalid project ids ignored")
	}
	if len(result.Resolved) < 2 {
		return result, utils.NewException(utils.ErrInsufficientSources, nil,
			fmt.Sprintf("%d valid project(s), need at least 2", len(result.Resolved)))
	}

	ids := make([]int, len(result.Resolved))
	for i, s := range result.Resolved {
		ids[i] = s.ProjectID
	}
	log.Info().Ints("Ids", ids).Msg("Merging projects")

	var (
		name    = m.DestinationName(ids)
		final   = filepath.Join(m.conf.DestRoot, name)
		staging = filepath.Join(m.conf.DestRoot, "."+name+".partial")
	)

	if err := m.createDestination(final, staging); err != nil {
		return result, err
	}

	copier, err := NewCopier(m.conf, m.fs)
	if err != nil {
		m.abort(staging)
		return result, err
	}
	defer copier.Release()

	for _, s := range result.Resolved {
		for _, split := range utils.Splits {
			stats, err := copier.CopySplit(s.Path, split, s.ProjectID, staging)
			if err != nil {
				result.Copied.Errors = multierr.Append(result.Copied.Errors, err)
				continue
			}
			result.Copied.Add(stats)
		}
	}

	result.Reconcile, err = m.reconciler.Reconcile(staging, result.Resolved)
	if err != nil {
		m.abort(staging)
		return result, err
	}

	if m.conf.PruneEmpty {
		m.prune(staging, result)
	}

	result.Errors = multierr.Combine(result.Copied.Errors, result.Reconcile.Errors, result.Errors)

	if err := m.fs.Rename(staging, final); err != nil {
		m.abort(staging)
		return result, utils.NewException(utils.ErrDestinationCreate, err, "publish "+final)
	}
	result.Path = final

	log.Info().Str("Path", final).Int("Images", result.Copied.Images).
		Int("Classes", len(result.Reconcile.Classes)).Msg("Merge finished")
	return result, nil
}

func (m *Merger) createDestination(final, staging string) error {
	if ok, _ := afero.Exists(m.fs, final); ok {
		return utils.NewException(utils.ErrDestinationCreate, os.ErrExist, final)
	}

	if err := mkdirAll(m.fs, utils.SplitDirs(staging)...); err != nil {
		log.Error().Err(err).Str("Path", staging).Msg("Failed create destination folders")
		m.abort(staging)
		return utils.NewException(utils.ErrDestinationCreate, err, staging)
	}
	return nil
}

func (m *Merger) prune(staging string, result *MergeResult) {
	for _, rel := range result.Reconcile.EmptyLabels {
		if err := m.editor.RemovePair(staging, rel); err != nil {
			log.Warn().Err(err).Str("Label", rel).Msg("Failed remove empty label")
			result.Errors = multierr.Append(result.Errors, err)
			continue
		}
		result.Pruned = append(result.Pruned, rel)
	}
	if len(result.Pruned) > 0 {
		log.Info().Int("Count", len(result.Pruned)).Msg("Empty labels removed with their images")
	}
}

// abort removes a staging folder left by a failed merge.
func (m *Merger) abort(staging string) {
	if err := m.fs.RemoveAll(staging); err != nil {
		log.Warn().Err(err).Str("Path", staging).Msg("Failed remove staging folder")
	}
}
