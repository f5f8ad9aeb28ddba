package services

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/evilmagics/dataset_merger/internal/utils"
)

func TestTaxonomyCaseInsensitiveDedup(t *testing.T) {
	tax := NewTaxonomy(utils.ClassNameSync{})
	tax.Add(1, []string{"Box", "box", "Pallet"})
	tax.Add(2, []string{"Pallet", " BOX "})

	if want := []string{"Box", "Pallet"}; !reflect.DeepEqual(tax.Names, want) {
		t.Fatalf("Names = %q, want %q", tax.Names, want)
	}

	tests := []struct {
		project, index, want int
	}{
		{1, 0, 0},
		{1, 1, 0},
		{1, 2, 1},
		{2, 0, 1},
		{2, 1, 0},
	}
	for _, tt := range tests {
		got, ok := tax.Lookup(tt.project, tt.index)
		if !ok || got != tt.want {
			t.Errorf("Lookup(%d, %d) = %d, %v; want %d", tt.project, tt.index, got, ok, tt.want)
		}
	}

	if _, ok := tax.Lookup(2, 2); ok {
		t.Error("index outside the project's list must not map")
	}
	if _, ok := tax.Lookup(3, 0); ok {
		t.Error("unknown project must not map")
	}
}

func TestTaxonomyAliases(t *testing.T) {
	tax := NewTaxonomy(utils.NewClassNameSync(map[string][]string{"car": {"van"}}))
	tax.Add(1, []string{"Car"})
	tax.Add(2, []string{"Van", "Truck"})

	if want := []string{"Car", "Truck"}; !reflect.DeepEqual(tax.Names, want) {
		t.Fatalf("Names = %q, want %q", tax.Names, want)
	}
	if got, _ := tax.Lookup(2, 0); got != 0 {
		t.Fatalf("van should map onto car, got %d", got)
	}
}

func TestTaxonomyIdempotentSelfMerge(t *testing.T) {
	classes := []string{"Box", "Pallet", "pallet", "Forklift"}
	tax := NewTaxonomy(utils.ClassNameSync{})
	tax.Add(10, classes)
	tax.Add(11, classes)

	if tax.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 distinct names", tax.Len())
	}
	for i := range classes {
		a, _ := tax.Lookup(10, i)
		b, _ := tax.Lookup(11, i)
		if a != b {
			t.Errorf("class %d resolves to %d and %d", i, a, b)
		}
	}
}

func TestTaxonomyNonCommutative(t *testing.T) {
	a := []string{"Box", "Pallet"}
	b := []string{"Forklift", "box"}

	ab := NewTaxonomy(utils.ClassNameSync{})
	ab.Add(1, a)
	ab.Add(2, b)

	ba := NewTaxonomy(utils.ClassNameSync{})
	ba.Add(2, b)
	ba.Add(1, a)

	if reflect.DeepEqual(ab.Names, ba.Names) {
		t.Fatalf("expected different orders, got %q twice", ab.Names)
	}
	if ab.Len() != ba.Len() {
		t.Fatalf("cardinality differs: %d vs %d", ab.Len(), ba.Len())
	}
	if !reflect.DeepEqual(nameSet(ab.Names), nameSet(ba.Names)) {
		t.Fatalf("name sets differ: %q vs %q", ab.Names, ba.Names)
	}

	// each project class still resolves to the same name in both
	for _, p := range []struct {
		id      int
		classes []string
	}{{1, a}, {2, b}} {
		for i := range p.classes {
			x, _ := ab.Lookup(p.id, i)
			y, _ := ba.Lookup(p.id, i)
			if !strings.EqualFold(ab.Names[x], ba.Names[y]) {
				t.Errorf("project %d class %d: %q vs %q", p.id, i, ab.Names[x], ba.Names[y])
			}
		}
	}
}

func nameSet(names []string) []string {
	set := make([]string, len(names))
	for i, n := range names {
		set[i] = utils.NormalizeClassName(n)
	}
	sort.Strings(set)
	return set
}

func TestTaxonomyRemap(t *testing.T) {
	tax := NewTaxonomy(utils.ClassNameSync{})
	tax.Add(1, []string{"Box"})
	tax.Add(2, []string{"Pallet", "Box"})

	body := []byte("1 0.500 0.25\t0.2 0.2\n\n0 .3 .3 .1 .1\r\n7 .1 .1 .1 .1\nfoo 1 2\n")
	out, stats := tax.Remap(2, body)

	want := "0 0.500 0.25\t0.2 0.2\n1 .3 .3 .1 .1\n"
	if string(out) != want {
		t.Fatalf("Remap = %q, want %q", out, want)
	}
	if stats != (RemapStats{Kept: 2, Dropped: 1, Unparsable: 1}) {
		t.Fatalf("stats = %+v", stats)
	}

	out, stats = tax.Remap(2, []byte("9 1 1 1 1\n"))
	if len(out) != 0 || stats.Kept != 0 || stats.Dropped != 1 {
		t.Fatalf("all-orphan file: out=%q stats=%+v", out, stats)
	}
}
