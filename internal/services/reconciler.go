package services

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Source is a resolved project dataset taking part in a merge.
type Source struct {
	ProjectID int
	Path      string
}

type ReconcileResult struct {
	Classes        []string
	Info           json.RawMessage
	FilesRewritten int
	Lines          RemapStats
	// EmptyLabels lists label files (relative to the dataset root) left
	// without records. The reconciler never deletes them.
	EmptyLabels []string
	// Skipped lists label files whose project prefix did not parse.
	Skipped []string
	Errors  error
}

// Reconciler builds a merged taxonomy and remaps every staged label file.
type Reconciler struct {
	fs   afero.Fs
	conf *config.Config
}

func NewReconciler(conf *config.Config, fs ...afero.Fs) *Reconciler {
	return &Reconciler{fs: pickFs(fs), conf: pickConfig(conf)}
}

// BuildTaxonomy reads each source's classes.txt in order and picks the info
// block of the first source whose notes.json has one.
func (r Reconciler) BuildTaxonomy(sources []Source) (*Taxonomy, json.RawMessage, error) {
	var (
		taxonomy = NewTaxonomy(r.conf.Aliases())
		info     json.RawMessage
	)
	log.Debug().Interface("Aliases", taxonomy.aliases).Msg("Class aliases")

	for _, s := range sources {
		classes, ok, err := config.LoadClasses(r.fs, s.Path)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			log.Warn().Int("Project", s.ProjectID).Str("Path", s.Path).Msg("No classes.txt, project adds no classes")
		}
		taxonomy.Add(s.ProjectID, classes)

		if info != nil {
			continue
		}
		notes, ok, err := config.LoadNotes(r.fs, s.Path)
		if err != nil {
			log.Warn().Err(err).Int("Project", s.ProjectID).Msg("Unreadable notes.json ignored")
			continue
		}
		if ok && notes.HasInfo() {
			info = notes.Info
		}
	}

	if info == nil {
		info = r.conf.InfoJSON()
	}
	return taxonomy, info, nil
}

// Reconcile merges the taxonomies of sources, rewrites every label file
// already staged in dest and writes classes.txt, notes.json and data.yaml.
func (r Reconciler) Reconcile(dest string, sources []Source) (*ReconcileResult, error) {
	taxonomy, info, err := r.BuildTaxonomy(sources)
	if err != nil {
		return nil, err
	}

	result := r.RewriteLabels(dest, taxonomy)
	result.Classes = taxonomy.Names
	result.Info = info

	if err := r.WriteMetadata(dest, taxonomy.Names, info); err != nil {
		return result, err
	}

	log.Info().Strs("Classes", taxonomy.Names).Int("Files", result.FilesRewritten).
		Int("Dropped", result.Lines.Dropped).Msg("Metadata merged")
	return result, nil
}

// RewriteLabels remaps every labels/<split>/*.txt of dest with taxonomy.
func (r Reconciler) RewriteLabels(dest string, taxonomy *Taxonomy) *ReconcileResult {
	var (
		result = new(ReconcileResult)
		mu     sync.Mutex
		p      = pool.New().WithMaxGoroutines(workerCount(r.conf))
	)

	for _, split := range utils.Splits {
		dir := filepath.Join(dest, utils.LabelsDir, string(split))
		files, err := regularFiles(r.fs, dir)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = multierr.Append(result.Errors, err)
			}
			continue
		}

		for _, name := range files {
			if filepath.Ext(name) != utils.LabelExt {
				continue
			}
			path := filepath.Join(dir, name)
			rel := relPath(dest, path)

			p.Go(func() {
				projectID, err := utils.ParseProjectID(name)
				if err != nil {
					log.Warn().Err(err).Str("Path", rel).Msg("Label left untouched")
					mu.Lock()
					result.Skipped = append(result.Skipped, rel)
					result.Errors = multierr.Append(result.Errors, err)
					mu.Unlock()
					return
				}

				stats, empty, err := r.rewrite(path, projectID, taxonomy)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Warn().Err(err).Str("Path", rel).Msg("Label rewrite failed")
					result.Errors = multierr.Append(result.Errors, err)
					return
				}
				result.FilesRewritten++
				result.Lines.Add(stats)
				if empty {
					result.EmptyLabels = append(result.EmptyLabels, rel)
				}
			})
		}
	}
	p.Wait()

	sort.Strings(result.EmptyLabels)
	sort.Strings(result.Skipped)
	return result
}

func (r Reconciler) rewrite(path string, projectID int, taxonomy *Taxonomy) (RemapStats, bool, error) {
	body, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return RemapStats{}, false, err
	}

	out, stats := taxonomy.Remap(projectID, body)
	if stats.Unparsable > 0 {
		log.Warn().Str("Path", utils.RightWrap(path, 100)).Int("Lines", stats.Unparsable).
			Msg("Unparsable label lines dropped")
	}

	if err := afero.WriteFile(r.fs, path, out, 0o644); err != nil {
		return stats, false, err
	}
	return stats, stats.Kept == 0, nil
}

// WriteMetadata writes classes.txt, notes.json and data.yaml into dest.
func (r Reconciler) WriteMetadata(dest string, names []string, info json.RawMessage) error {
	if err := config.SaveClasses(r.fs, dest, names); err != nil {
		return err
	}
	if err := config.SaveNotes(r.fs, dest, config.NewNotes(names, info)); err != nil {
		return err
	}
	return config.SaveDataset(r.fs, *config.NewDataset(names...), dest)
}
