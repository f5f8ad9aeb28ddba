package services

import (
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// SplitResult lists image filenames per partition plus the images dropped
// during discovery.
type SplitResult struct {
	Train []string
	Val   []string
	Test  []string
	// Removed images had an empty label; both files were deleted.
	Removed []string
	// Orphans are images without a label; they stay in the pool.
	Orphans []string
	Errors  error
}

func (r SplitResult) Total() int { return len(r.Train) + len(r.Val) + len(r.Test) }

// Partition returns the files assigned to split.
func (r SplitResult) Partition(split utils.Split) []string {
	switch split {
	case utils.SplitTrain:
		return r.Train
	case utils.SplitVal:
		return r.Val
	default:
		return r.Test
	}
}

// Splitter moves the flat images/ and labels/ pool of a dataset into
// train/val/test folders.
type Splitter struct {
	fs   afero.Fs
	conf *config.Config
	rand *rand.Rand
}

// NewSplitter seeds the shuffle from conf.Split.Seed, or from the clock
// when the seed is zero.
func NewSplitter(conf *config.Config, fs ...afero.Fs) *Splitter {
	conf = pickConfig(conf)
	seed := conf.Split.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Splitter{fs: pickFs(fs), conf: conf, rand: rand.New(rand.NewSource(seed))}
}

// WithRand replaces the shuffle source.
func (s *Splitter) WithRand(r *rand.Rand) *Splitter {
	s.rand = r
	return s
}

// Discover pairs every pool image with labels/<stem>.txt. Images whose label
// is empty are deleted with it; images without a label are left in place.
// A label pairs with one image only: later images sharing its stem are orphans.
func (s *Splitter) Discover(dataset string) (accepted []string, result *SplitResult, err error) {
	result = new(SplitResult)
	claimed := make(map[string]string)
	imagesDir := filepath.Join(dataset, utils.ImagesDir)

	files, err := regularFiles(s.fs, imagesDir)
	if err != nil {
		return nil, nil, utils.NewException(utils.ErrNotFound, err, imagesDir)
	}

	for _, name := range files {
		if !utils.HasExt(name, s.conf.ImageExts) {
			continue
		}
		label := utils.LabelFilename(name)
		if owner, ok := claimed[label]; ok {
			log.Warn().Str("Image", name).Str("Paired", owner).Msg("Label already paired, image ignored")
			result.Orphans = append(result.Orphans, name)
			continue
		}
		claimed[label] = name

		imagePath := utils.ImagePath(dataset, name)
		labelPath := utils.LabelPath(dataset, label)

		body, err := afero.ReadFile(s.fs, labelPath)
		if err != nil {
			if ok, _ := afero.Exists(s.fs, labelPath); ok {
				result.Errors = multierr.Append(result.Errors, err)
			}
			log.Warn().Str("Image", name).Msg("Image without label ignored")
			result.Orphans = append(result.Orphans, name)
			continue
		}

		if strings.TrimSpace(string(body)) == "" {
			err := multierr.Combine(s.fs.Remove(labelPath), s.fs.Remove(imagePath))
			if err != nil {
				result.Errors = multierr.Append(result.Errors, err)
				continue
			}
			log.Warn().Str("Image", name).Msg("Removed empty label and its image")
			result.Removed = append(result.Removed, name)
			continue
		}

		accepted = append(accepted, name)
	}

	log.Debug().Int("Accepted", len(accepted)).Msg("Valid files discovered")
	return accepted, result, nil
}

// Partition shuffles files and cuts them into floor(train*n), floor(val*n)
// and the remainder.
func (s *Splitter) Partition(files []string, ratios config.SplitRatios) (train, val, test []string) {
	shuffled := append([]string(nil), files...)
	s.rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	total := len(shuffled)
	nTrain := int(math.Floor(ratios.Train * float64(total)))
	nVal := int(math.Floor(ratios.Val * float64(total)))
	if nTrain > total {
		nTrain = total
	}
	if nTrain+nVal > total {
		nVal = total - nTrain
	}

	return shuffled[:nTrain], shuffled[nTrain : nTrain+nVal], shuffled[nTrain+nVal:]
}

// Split validates ratios, discovers the pairs of dataset and moves each
// pair into its partition. A failed move is recorded and does not undo
// earlier moves.
func (s *Splitter) Split(dataset string, ratios config.SplitRatios) (*SplitResult, error) {
	if err := ratios.Validate(); err != nil {
		return nil, err
	}

	log.Info().Str("Path", dataset).Msg("Reading images")
	files, result, err := s.Discover(dataset)
	if err != nil {
		return nil, err
	}

	result.Train, result.Val, result.Test = s.Partition(files, ratios)
	log.Info().Int("Train", len(result.Train)).Int("Val", len(result.Val)).
		Int("Test", len(result.Test)).Msg("Dataset divided")

	if err := mkdirAll(s.fs, utils.SplitDirs(dataset)...); err != nil {
		return result, utils.NewException(utils.ErrDestinationCreate, err, dataset)
	}

	for _, split := range utils.Splits {
		for _, name := range result.Partition(split) {
			if err := s.movePair(dataset, name, split); err != nil {
				log.Warn().Err(err).Str("Image", name).Msg("Move failed")
				result.Errors = multierr.Append(result.Errors, err)
			}
		}
	}

	log.Info().Str("Path", dataset).Msg("Organization complete")
	return result, nil
}

func (s *Splitter) movePair(dataset, image string, split utils.Split) error {
	label := utils.LabelFilename(image)

	if err := s.fs.Rename(utils.ImagePath(dataset, image), utils.ImagePath(dataset, image, split)); err != nil {
		return utils.NewException(utils.ErrMoveFailed, err, image)
	}
	if err := s.fs.Rename(utils.LabelPath(dataset, label), utils.LabelPath(dataset, label, split)); err != nil {
		return utils.NewException(utils.ErrMoveFailed, err, label)
	}
	return nil
}
