package services

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

type OrganizeResult struct {
	// Buckets counts images per "WxH" bucket.
	Buckets       map[string]int
	Unreadable    []string
	MissingLabels []string
	Errors        error
}

// Organizer groups dataset images by pixel resolution.
type Organizer struct {
	fs   afero.Fs
	conf *config.Config
}

func NewOrganizer(conf *config.Config, fs ...afero.Fs) *Organizer {
	return &Organizer{fs: pickFs(fs), conf: pickConfig(conf)}
}

// Resolution reads the "WxH" of an image from its header.
func (o Organizer) Resolution(path string) (string, error) {
	f, err := o.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	conf, _, err := image.DecodeConfig(f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%dx%d", conf.Width, conf.Height), nil
}

// images lists every image under dataset/images, relative to that folder.
func (o Organizer) images(dataset string) ([]string, error) {
	root := filepath.Join(dataset, utils.ImagesDir)
	if ok, err := afero.DirExists(o.fs, root); err != nil || !ok {
		return nil, utils.NewException(utils.ErrNotFound, err, root)
	}

	var files []string
	err := afero.Walk(o.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && utils.HasExt(path, o.conf.ImageExts) {
			files = append(files, relPath(root, path))
		}
		return nil
	})
	return files, err
}

// Resolutions counts the images of dataset per resolution.
func (o Organizer) Resolutions(dataset string) (*OrganizeResult, error) {
	return o.run(dataset, false)
}

// OrganizeByResolution copies every image, and its label when present, into
// resolutions/<WxH>/{images,labels}/<subfolder>/.
func (o Organizer) OrganizeByResolution(dataset string) (*OrganizeResult, error) {
	return o.run(dataset, true)
}

func (o Organizer) run(dataset string, copyFiles bool) (*OrganizeResult, error) {
	files, err := o.images(dataset)
	if err != nil {
		return nil, err
	}

	var (
		result = &OrganizeResult{Buckets: make(map[string]int)}
		mu     sync.Mutex
		p      = pool.New().WithMaxGoroutines(workerCount(o.conf))
	)

	for _, rel := range files {
		p.Go(func() {
			res, missingLabel, err := o.process(dataset, rel, copyFiles)

			mu.Lock()
			defer mu.Unlock()
			if res == "" {
				log.Warn().Err(err).Str("Image", rel).Msg("Failed read image")
				result.Unreadable = append(result.Unreadable, rel)
				return
			}
			result.Buckets[res]++
			if missingLabel {
				result.MissingLabels = append(result.MissingLabels, rel)
			}
			if err != nil {
				result.Errors = multierr.Append(result.Errors, err)
			}
		})
	}
	p.Wait()

	sort.Strings(result.Unreadable)
	sort.Strings(result.MissingLabels)
	if copyFiles {
		log.Info().Int("Images", len(files)-len(result.Unreadable)).
			Str("Path", filepath.Join(dataset, ResolutionsDir)).Msg("Images organized by resolution")
	}
	return result, nil
}

// process returns the resolution of one image and, when copyFiles is set,
// copies it into its bucket. An empty resolution means the image was unreadable.
func (o Organizer) process(dataset, rel string, copyFiles bool) (string, bool, error) {
	imagePath := filepath.Join(dataset, utils.ImagesDir, filepath.FromSlash(rel))
	res, err := o.Resolution(imagePath)
	if err != nil || !copyFiles {
		return res, false, err
	}

	var (
		subdir    = ""
		bucket    = filepath.Join(dataset, ResolutionsDir, res)
		labelRel  = utils.ChangeFileExt(rel, utils.LabelExt)
		labelPath = filepath.Join(dataset, utils.LabelsDir, filepath.FromSlash(labelRel))
	)
	if i := strings.Index(rel, "/"); i >= 0 {
		subdir = rel[:i]
	}

	imageDest := filepath.Join(bucket, utils.ImagesDir, subdir)
	labelDest := filepath.Join(bucket, utils.LabelsDir, subdir)
	if err := mkdirAll(o.fs, imageDest, labelDest); err != nil {
		return res, false, utils.NewException(utils.ErrCopyFailed, err, imageDest)
	}

	if err := copyFile(o.fs, imagePath, filepath.Join(imageDest, filepath.Base(imagePath))); err != nil {
		return res, false, utils.NewException(utils.ErrCopyFailed, err, rel)
	}

	if ok, _ := afero.Exists(o.fs, labelPath); !ok {
		log.Info().Str("Image", rel).Msg("Label not found for image")
		return res, true, nil
	}
	if err := copyFile(o.fs, labelPath, filepath.Join(labelDest, filepath.Base(labelPath))); err != nil {
		return res, false, utils.NewException(utils.ErrCopyFailed, err, labelRel)
	}
	return res, false, nil
}
