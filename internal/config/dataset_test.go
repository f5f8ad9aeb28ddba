package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

func TestSaveLoadDataset(t *testing.T) {
	fs := afero.NewMemMapFs()
	ds := NewDataset("Box", "Pallet")
	if err := SaveDataset(fs, *ds, "/out"); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadDataset(fs, "/out/data.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Train != "images/train" || loaded.Val != "images/val" || loaded.NamesCount != 2 {
		t.Fatalf("loaded = %s", loaded.ToString())
	}
	if id, ok := loaded.GetClassId("pallet"); !ok || id != 1 {
		t.Fatalf("GetClassId(pallet) = %d, %v", id, ok)
	}
	if loaded.GetClassName(5) != "" || loaded.GetClassName(-1) != "" {
		t.Fatal("out of range class must be empty")
	}
}

func TestLoadClasses(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, ok, err := LoadClasses(fs, "/missing"); ok || err != nil {
		t.Fatalf("missing classes.txt: ok=%v err=%v", ok, err)
	}

	_ = afero.WriteFile(fs, "/ds/classes.txt", []byte("Box\r\n box \nPallet\n\n"), 0o644)
	got, ok, err := LoadClasses(fs, "/ds")
	if err != nil || !ok {
		t.Fatalf("LoadClasses: ok=%v err=%v", ok, err)
	}
	if want := []string{"Box", "box", "Pallet"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("LoadClasses = %q, want %q", got, want)
	}

	if err := SaveClasses(fs, "/out", []string{"Box", "Pallet"}); err != nil {
		t.Fatal(err)
	}
	b, _ := afero.ReadFile(fs, "/out/classes.txt")
	if string(b) != "Box\nPallet\n" {
		t.Fatalf("classes.txt = %q", b)
	}
}

func TestNotesCarryInfoVerbatim(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := `{"categories":[{"id":0,"name":"Box"}],"info":{"year":2023,"version":"2.1","contributor":"QA"}}`
	_ = afero.WriteFile(fs, "/ds/notes.json", []byte(src), 0o644)

	notes, ok, err := LoadNotes(fs, "/ds")
	if err != nil || !ok || !notes.HasInfo() {
		t.Fatalf("LoadNotes: ok=%v err=%v", ok, err)
	}

	if err := SaveNotes(fs, "/out", NewNotes([]string{"Box", "Pallet"}, notes.Info)); err != nil {
		t.Fatal(err)
	}
	b, _ := afero.ReadFile(fs, "/out/notes.json")

	var out struct {
		Categories []Category             `json:"categories"`
		Info       map[string]interface{} `json:"info"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Categories) != 2 || out.Categories[1] != (Category{ID: 1, Name: "Pallet"}) {
		t.Fatalf("categories = %+v", out.Categories)
	}
	if out.Info["contributor"] != "QA" || out.Info["version"] != "2.1" {
		t.Fatalf("info = %v", out.Info)
	}
	if !strings.Contains(string(b), "\n    ") {
		t.Fatal("notes.json should be indented")
	}
}

func TestNotesWithoutInfo(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/ds/notes.json", []byte(`{"categories":[],"info":null}`), 0o644)
	notes, ok, err := LoadNotes(fs, "/ds")
	if err != nil || !ok {
		t.Fatal(err)
	}
	if notes.HasInfo() {
		t.Fatal("null info must not count as present")
	}
	if !json.Valid(Default().InfoJSON()) {
		t.Fatal("default info is not valid JSON")
	}
}
