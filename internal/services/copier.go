package services

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// CopyStats counts the files copied for one or more splits. Errors holds
// every per-file failure; they never stop the remaining copies.
type CopyStats struct {
	Images int
	Labels int
	Errors error
}

func (s *CopyStats) Add(o *CopyStats) {
	if o == nil {
		return
	}
	s.Images += o.Images
	s.Labels += o.Labels
	s.Errors = multierr.Append(s.Errors, o.Errors)
}

// Copier stages a source split into a destination dataset, prefixing every
// filename with the project id.
type Copier struct {
	fs   afero.Fs
	conf *config.Config
	pool *ants.Pool
}

func NewCopier(conf *config.Config, fs ...afero.Fs) (*Copier, error) {
	conf = pickConfig(conf)
	pool, err := ants.NewPool(workerCount(conf), ants.WithPreAlloc(true))
	if err != nil {
		return nil, err
	}

	return &Copier{fs: pickFs(fs), conf: conf, pool: pool}, nil
}

// Release stops the worker pool.
func (c *Copier) Release() { c.pool.Release() }

// CopySplit copies src/{images,labels}/<split> into dest as
// "<projectID>_<name>". Source folders may use split aliases such as
// "valid". A source missing either directory is skipped.
func (c *Copier) CopySplit(src string, split utils.Split, projectID int, dest string) (*CopyStats, error) {
	stats := new(CopyStats)
	srcImages, ok := c.sourceDir(filepath.Join(src, utils.ImagesDir), split)
	if !ok {
		log.Debug().Str("Path", src).Str("Split", string(split)).Int("Project", projectID).Msg("Split images missing, skipped")
		return stats, nil
	}
	srcLabels, ok := c.sourceDir(filepath.Join(src, utils.LabelsDir), split)
	if !ok {
		log.Debug().Str("Path", src).Str("Split", string(split)).Int("Project", projectID).Msg("Split labels missing, skipped")
		return stats, nil
	}

	var (
		images = utils.NewIncrement()
		labels = utils.NewIncrement()
		mu     sync.Mutex
		wg     sync.WaitGroup
	)

	fail := func(err error, path string) {
		log.Warn().Err(err).Str("Path", utils.RightWrap(path, 100)).Msg("Copy failed")
		mu.Lock()
		stats.Errors = multierr.Append(stats.Errors, utils.NewException(utils.ErrCopyFailed, err, path))
		mu.Unlock()
	}

	jobs := []struct {
		from, to string
		counter  *utils.Increment
	}{
		{srcImages, filepath.Join(dest, utils.ImagesDir, string(split)), images},
		{srcLabels, filepath.Join(dest, utils.LabelsDir, string(split)), labels},
	}

	for _, job := range jobs {
		files, err := regularFiles(c.fs, job.from)
		if err != nil {
			fail(err, job.from)
			continue
		}

		for _, name := range files {
			from := filepath.Join(job.from, name)
			to := filepath.Join(job.to, utils.PrefixName(projectID, name))
			task := func() {
				defer wg.Done()
				if err := copyFile(c.fs, from, to); err != nil {
					fail(err, from)
					return
				}
				job.counter.Increase()
			}

			wg.Add(1)
			if err := c.pool.Submit(task); err != nil {
				task()
			}
		}
	}
	wg.Wait()

	stats.Images = images.Value()
	stats.Labels = labels.Value()
	log.Info().Int("Project", projectID).Str("Split", string(split)).
		Int("Images", stats.Images).Int("Labels", stats.Labels).Msg("Split copied")

	return stats, nil
}

// sourceDir finds the folder of split under root, accepting the aliases
// known to utils.FindSplit.
func (c *Copier) sourceDir(root string, split utils.Split) (string, bool) {
	exact := filepath.Join(root, string(split))
	if ok, _ := afero.DirExists(c.fs, exact); ok {
		return exact, true
	}

	entries, err := afero.ReadDir(c.fs, root)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if !e.IsDir() || !utils.IsSplitDetected(name) {
			continue
		}
		if *utils.FindSplit(name) == split {
			return filepath.Join(root, e.Name()), true
		}
	}
	return "", false
}
