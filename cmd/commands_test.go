package main

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/utils"
)

func TestDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "42", want: 42},
		{in: "042", want: 42},
		{in: "010", want: 10},
		{in: "08", want: 8},
		{in: "0", want: 0},
		{in: "000", want: 0},
		{in: "", wantErr: true},
		{in: "0x10", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "+3", wantErr: true},
		{in: "Box", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := decimal(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("decimal(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("decimal(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseInts(t *testing.T) {
	got, err := parseInts([]string{"010", "011"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{10, 11}; !reflect.DeepEqual(got, want) {
		t.Fatalf("parseInts = %v, want %v", got, want)
	}

	if _, err := parseInts([]string{"12", "x"}); err == nil {
		t.Fatal("non numeric id must fail")
	}
}

func TestClassIDs(t *testing.T) {
	dir := t.TempDir()
	if err := config.SaveDataset(osFs, *config.NewDataset("Box", "Pallet", "Person"), dir); err != nil {
		t.Fatal(err)
	}

	got, err := classIDs(dir, []string{"010", "pallet", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{10, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("classIDs = %v, want %v", got, want)
	}

	if _, err := classIDs(dir, []string{"forklift"}); err == nil {
		t.Fatal("unknown class must fail")
	}
	if _, err := classIDs(filepath.Join(dir, utils.ImagesDir), []string{"box"}); err == nil {
		t.Fatal("class name without data.yaml must fail")
	}
}
