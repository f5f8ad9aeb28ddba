package services

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Locator finds dataset directories by the project ids embedded in their
// names. Candidates are visited in name order, so the first match is stable.
type Locator struct {
	fs   afero.Fs
	conf *config.Config
}

func NewLocator(conf *config.Config, fs ...afero.Fs) *Locator {
	return &Locator{fs: pickFs(fs), conf: pickConfig(conf)}
}

// LocateProject finds the exported dataset of a single project.
func (l Locator) LocateProject(id int) (string, error) {
	return l.Locate(strconv.Itoa(id))
}

// Locate resolves "42" against the source root, or a compound "60_61"
// against the merged root (all ids must appear in the directory name),
// falling back to the first id alone.
func (l Locator) Locate(identifier string) (string, error) {
	ids := utils.SplitIdentifier(identifier)
	if len(ids) == 0 {
		return "", utils.NewException(utils.ErrNotFound, nil, "empty identifier")
	}

	if len(ids) > 1 {
		if dir, ok := l.find(l.conf.MergedRoot, ids); ok {
			return dir, nil
		}
	}

	if dir, ok := l.find(l.conf.SourceRoot, ids[:1]); ok {
		return dir, nil
	}

	log.Warn().Str("Id", identifier).Str("Root", l.conf.SourceRoot).Msg("Project folder not found")
	return "", utils.NewException(utils.ErrNotFound, nil, "no dataset folder for "+identifier)
}

// find returns the first visible directory under root whose digit runs
// include all ids.
func (l Locator) find(root string, ids []string) (string, bool) {
	entries, err := afero.ReadDir(l.fs, root)
	if err != nil {
		log.Debug().Err(err).Str("Root", root).Msg("Search root not readable")
		return "", false
	}

	for _, e := range entries {
		// hidden folders are merge staging areas
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if containsAll(utils.DigitSet(e.Name()), ids) {
			return filepath.Join(root, e.Name()), true
		}
	}
	return "", false
}

func containsAll(set map[string]struct{}, ids []string) bool {
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
