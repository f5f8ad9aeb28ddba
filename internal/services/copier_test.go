package services

import (
	"testing"

	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/spf13/afero"
)

func TestCopySplit(t *testing.T) {
	fs := afero.NewMemMapFs()
	makeProject(t, fs, "/exports/P_3", []string{"Box"}, map[utils.Split][]pair{
		utils.SplitTrain: {{"0001", "0 .1 .1 .1 .1\n"}, {"img_2", "0 .2 .2 .2 .2\n"}},
	})
	if err := mkdirAll(fs, utils.SplitDirs("/dest")...); err != nil {
		t.Fatal(err)
	}

	copier, err := NewCopier(testConfig(), fs)
	if err != nil {
		t.Fatal(err)
	}
	defer copier.Release()

	stats, err := copier.CopySplit("/exports/P_3", utils.SplitTrain, 3, "/dest")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Images != 2 || stats.Labels != 2 || stats.Errors != nil {
		t.Fatalf("stats = %+v", stats)
	}

	if got := readFile(t, fs, "/dest/images/train/3_0001.jpg"); got != "image:0001" {
		t.Errorf("copied image = %q", got)
	}
	if got := readFile(t, fs, "/dest/labels/train/3_img_2.txt"); got != "0 .2 .2 .2 .2\n" {
		t.Errorf("copied label = %q", got)
	}
	if !exists(t, fs, "/exports/P_3/images/train/0001.jpg") {
		t.Error("source must be left in place")
	}

	// val has no folders in the source
	stats, err = copier.CopySplit("/exports/P_3", utils.SplitVal, 3, "/dest")
	if err != nil || stats.Images != 0 || stats.Labels != 0 {
		t.Fatalf("missing split: stats=%+v err=%v", stats, err)
	}
}

func TestCopySplitNeedsBothFolders(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/exports/P_4/images/test/a.jpg", "x")

	copier, err := NewCopier(testConfig(), fs)
	if err != nil {
		t.Fatal(err)
	}
	defer copier.Release()

	stats, err := copier.CopySplit("/exports/P_4", utils.SplitTest, 4, "/dest")
	if err != nil || stats.Images != 0 {
		t.Fatalf("stats=%+v err=%v", stats, err)
	}
	if exists(t, fs, "/dest/images/test/4_a.jpg") {
		t.Error("split without labels folder must be skipped")
	}
}

func TestCopySplitAliasFolders(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/exports/P_5/images/Valid/a.jpg", "x")
	writeFile(t, fs, "/exports/P_5/labels/valid/a.txt", "0 .5 .5 .1 .1\n")
	if err := mkdirAll(fs, utils.SplitDirs("/dest")...); err != nil {
		t.Fatal(err)
	}

	copier, err := NewCopier(testConfig(), fs)
	if err != nil {
		t.Fatal(err)
	}
	defer copier.Release()

	stats, err := copier.CopySplit("/exports/P_5", utils.SplitVal, 5, "/dest")
	if err != nil || stats.Images != 1 || stats.Labels != 1 {
		t.Fatalf("stats=%+v err=%v", stats, err)
	}
	if !exists(t, fs, "/dest/images/val/5_a.jpg") || !exists(t, fs, "/dest/labels/val/5_a.txt") {
		t.Error("aliased split folders must land in val")
	}
}
