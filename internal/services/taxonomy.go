package services

import (
	"github.com/evilmagics/dataset_merger/internal/utils"
)

// ProjectClass identifies a class index within one source project.
type ProjectClass struct {
	ProjectID int
	Index     int
}

// Taxonomy accumulates a merged, duplicate-free class list from several
// projects. Names are compared by their normalized (trimmed, lower-cased,
// alias-folded) key; the first spelling seen is kept.
type Taxonomy struct {
	Names   []string
	aliases utils.ClassNameSync
	keys    map[string]int
	mapping map[ProjectClass]int
}

// RemapStats counts what happened to the records of a label file.
type RemapStats struct {
	Kept       int
	Dropped    int
	Unparsable int
}

func (s *RemapStats) Add(o RemapStats) {
	s.Kept += o.Kept
	s.Dropped += o.Dropped
	s.Unparsable += o.Unparsable
}

func NewTaxonomy(aliases utils.ClassNameSync) *Taxonomy {
	return &Taxonomy{
		aliases: aliases,
		keys:    make(map[string]int),
		mapping: make(map[ProjectClass]int),
	}
}

// Add registers the ordered classes of one project. Order of Add calls
// determines the merged indices.
func (t *Taxonomy) Add(projectID int, classes []string) {
	for idx, name := range classes {
		key := t.aliases.Key(name)
		merged, ok := t.keys[key]
		if !ok {
			t.Names = append(t.Names, name)
			merged = len(t.Names) - 1
			t.keys[key] = merged
		}
		t.mapping[ProjectClass{ProjectID: projectID, Index: idx}] = merged
	}
}

// Lookup returns the merged index of a project's class index.
func (t *Taxonomy) Lookup(projectID, index int) (int, bool) {
	merged, ok := t.mapping[ProjectClass{ProjectID: projectID, Index: index}]
	return merged, ok
}

func (t *Taxonomy) Len() int { return len(t.Names) }

// Remap rewrites the class index of every record of a label file from
// projectID. Records without a mapping and unparsable lines are dropped.
func (t *Taxonomy) Remap(projectID int, body []byte) ([]byte, RemapStats) {
	var (
		stats   RemapStats
		records []utils.LabelRecord
	)

	for _, line := range utils.SplitLines(body) {
		rec, ok, err := utils.ParseLabelLine(line)
		if err != nil {
			stats.Unparsable++
			continue
		}
		if !ok {
			continue
		}

		merged, found := t.Lookup(projectID, rec.Class)
		if !found {
			stats.Dropped++
			continue
		}
		rec.Class = merged
		records = append(records, rec)
		stats.Kept++
	}

	return utils.JoinRecords(records), stats
}
