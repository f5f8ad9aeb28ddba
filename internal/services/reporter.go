package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	ReportsDir     = "reports"
	ResolutionsDir = "resolutions"
)

// Report holds image counts per split and per project id token.
type Report struct {
	Dataset string
	Counts  map[utils.Split]map[string]int
}

// Total counts the images of one project over every split.
func (r Report) Total(projectID string) int {
	total := 0
	for _, c := range r.Counts {
		total += c[projectID]
	}
	return total
}

func (r Report) Lines() []string {
	var lines []string
	for _, split := range utils.Splits {
		counts, ok := r.Counts[split]
		if !ok {
			continue
		}
		lines = append(lines, "Folder: "+string(split))
		for _, id := range sortedKeys(counts) {
			lines = append(lines, fmt.Sprintf(" - Dataset ID %s: %d images", id, counts[id]))
		}
		lines = append(lines, "")
	}
	return lines
}

// ResolutionReport groups the images of one resolution bucket by project
// and maps project ids to human names.
type ResolutionReport struct {
	Dataset    string
	Resolution string
	Names      map[string]string
	Files      map[string]map[utils.Split][]string
}

// Name returns the human name of a project id, or "ID <id>".
func (r ResolutionReport) Name(id string) string {
	if n, ok := r.Names[id]; ok {
		return n
	}
	return "ID " + id
}

// Consolidated lists the total image count per project name.
func (r ResolutionReport) Consolidated() []string {
	lines := []string{"Consolidated:"}
	for _, id := range sortedKeys(r.Files) {
		total := 0
		for _, files := range r.Files[id] {
			total += len(files)
		}
		lines = append(lines, fmt.Sprintf(" - %s: %d images", r.Name(id), total))
	}
	return append(lines, "")
}

// PerSplit lists the image count per split and project name.
func (r ResolutionReport) PerSplit() []string {
	var lines []string
	for _, split := range utils.Splits {
		lines = append(lines, "Folder: "+string(split))
		for _, id := range sortedKeys(r.Files) {
			if files, ok := r.Files[id][split]; ok {
				lines = append(lines, fmt.Sprintf(" - %s: %d images", r.Name(id), len(files)))
			}
		}
		lines = append(lines, "")
	}
	return lines
}

// Detail lists every file per project and split.
func (r ResolutionReport) Detail() []string {
	var lines []string
	for _, id := range sortedKeys(r.Files) {
		lines = append(lines, "", fmt.Sprintf("=== Dataset ID %s ===", id))
		for _, split := range utils.Splits {
			files := r.Files[id][split]
			if len(files) == 0 {
				continue
			}
			lines = append(lines, "", fmt.Sprintf(" [%s] - %d images:", strings.ToUpper(string(split)), len(files)))
			sorted := append([]string(nil), files...)
			sort.Strings(sorted)
			for _, f := range sorted {
				lines = append(lines, " "+f)
			}
		}
	}
	return append(lines, "")
}

// Reporter counts images per project by the id prefix of their filenames.
type Reporter struct {
	fs   afero.Fs
	conf *config.Config
}

func NewReporter(conf *config.Config, fs ...afero.Fs) *Reporter {
	return &Reporter{fs: pickFs(fs), conf: pickConfig(conf)}
}

// scan groups the image files of images/<split> under root by prefix token.
// Missing split folders are skipped.
func (r Reporter) scan(root string, fn func(split utils.Split, id, file string)) {
	for _, split := range utils.Splits {
		dir := filepath.Join(root, string(split))
		files, err := regularFiles(r.fs, dir)
		if err != nil {
			log.Debug().Str("Path", dir).Msg("Split folder not found, skipped")
			continue
		}
		for _, f := range files {
			if utils.HasExt(f, r.conf.ImageExts) {
				fn(split, utils.PrefixToken(f), f)
			}
		}
	}
}

func (r Reporter) Report(dataset string) (*Report, error) {
	imagesDir := filepath.Join(dataset, utils.ImagesDir)
	if ok, err := afero.DirExists(r.fs, imagesDir); err != nil || !ok {
		return nil, utils.NewException(utils.ErrNotFound, err, imagesDir)
	}

	report := &Report{Dataset: dataset, Counts: make(map[utils.Split]map[string]int)}
	for _, split := range utils.Splits {
		if ok, _ := afero.DirExists(r.fs, filepath.Join(imagesDir, string(split))); ok {
			report.Counts[split] = make(map[string]int)
		}
	}
	r.scan(imagesDir, func(split utils.Split, id, _ string) {
		report.Counts[split][id]++
	})

	return report, nil
}

// WriteReport writes the per-folder counts to reports/report_by_folder_<base>.txt.
func (r Reporter) WriteReport(report *Report) (string, error) {
	base := filepath.Base(report.Dataset)
	path := filepath.Join(report.Dataset, ReportsDir, fmt.Sprintf("report_by_folder_%s.txt", base))
	if err := r.writeLines(path, report.Lines()); err != nil {
		return "", err
	}
	log.Info().Str("Path", path).Msg("Folder count report saved")
	return path, nil
}

// MapDatasetNames maps project ids to names using the folders of the
// source root that share a digit run with referenceName. The id is the
// last all-digit "_" token of the folder; the name is the folder without
// that token and without the configured name prefix. Later folders win.
func (r Reporter) MapDatasetNames(referenceName string) map[string]string {
	var (
		reference = utils.DigitSet(referenceName)
		names     = make(map[string]string)
	)

	entries, err := afero.ReadDir(r.fs, r.conf.SourceRoot)
	if err != nil {
		log.Warn().Err(err).Str("Root", r.conf.SourceRoot).Msg("Source root not readable")
		return names
	}

	for _, e := range entries {
		if !e.IsDir() || !intersects(reference, utils.DigitSet(e.Name())) {
			continue
		}

		parts := strings.Split(e.Name(), utils.IDDelimiter)
		i, ok := lastNumericToken(parts)
		if !ok {
			log.Debug().Str("Folder", e.Name()).Msg("Folder shares ids but has no id token")
			continue
		}
		id := parts[i]
		rest := append(append([]string(nil), parts[:i]...), parts[i+1:]...)
		name := strings.TrimPrefix(strings.Join(rest, utils.IDDelimiter), r.conf.NamePrefix)

		if prev, ok := names[id]; ok && prev != name {
			log.Warn().Str("Id", id).Str("Previous", prev).Str("Name", name).Msg("Conflicting dataset names, last one kept")
		}
		names[id] = name
	}
	return names
}

// ResolutionReport reads resolutions/<resolution>/images/<split> of dataset.
func (r Reporter) ResolutionReport(dataset, resolution string) (*ResolutionReport, error) {
	bucket := filepath.Join(dataset, ResolutionsDir, resolution, utils.ImagesDir)
	if ok, err := afero.DirExists(r.fs, bucket); err != nil || !ok {
		return nil, utils.NewException(utils.ErrNotFound, err, bucket)
	}

	report := &ResolutionReport{
		Dataset:    dataset,
		Resolution: resolution,
		Names:      r.MapDatasetNames(filepath.Base(dataset)),
		Files:      make(map[string]map[utils.Split][]string),
	}
	r.scan(bucket, func(split utils.Split, id, file string) {
		if report.Files[id] == nil {
			report.Files[id] = make(map[utils.Split][]string)
		}
		report.Files[id][split] = append(report.Files[id][split], file)
	})

	return report, nil
}

// WriteResolutionReport writes the summary (totals and per split) and the
// per-file detail of a resolution report.
func (r Reporter) WriteResolutionReport(report *ResolutionReport) (summary, detail string, err error) {
	var (
		base = filepath.Base(report.Dataset)
		dir  = filepath.Join(report.Dataset, ReportsDir)
	)

	summary = filepath.Join(dir, fmt.Sprintf("report_%s_%s.txt", report.Resolution, base))
	if err = r.writeLines(summary, append(report.Consolidated(), report.PerSplit()...)); err != nil {
		return "", "", err
	}

	detail = filepath.Join(dir, fmt.Sprintf("report_images_%s_%s.txt", report.Resolution, base))
	if err = r.writeLines(detail, report.Detail()); err != nil {
		return "", "", err
	}

	log.Info().Str("Summary", summary).Str("Detail", detail).Msg("Resolution report saved")
	return summary, detail, nil
}

func (r Reporter) writeLines(path string, lines []string) error {
	if err := r.fs.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return afero.WriteFile(r.fs, path, []byte(strings.Join(lines, "\n")), 0o644)
}

func intersects(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// lastNumericToken returns the index of the last all-digit part.
func lastNumericToken(parts []string) (int, bool) {
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" && strings.Trim(parts[i], "0123456789") == "" {
			return i, true
		}
	}
	return 0, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
