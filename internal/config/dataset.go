package config

import (
	"os"
	"path/filepath"

	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Dataset is the YOLO data.yaml of a dataset root.
type Dataset struct {
	Train      string   `yaml:"train" json:"train"`
	Val        string   `yaml:"val" json:"val"`
	Test       string   `yaml:"test" json:"test"`
	NamesCount int      `yaml:"nc" json:"nc"`
	Names      []string `yaml:"names" json:"names"`
	namesIndex map[string]int
}

func (c Dataset) GetClassName(id int) string {
	if id < 0 || id > len(c.Names)-1 {
		return ""
	}
	return c.Names[id]
}

func (c Dataset) GetClassId(name string) (int, bool) {
	id, ok := c.namesIndex[utils.NormalizeClassName(name)]
	return id, ok
}

func (c Dataset) ToString() string {
	j, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(j)
}

func (c Dataset) YAMLMarshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func indexNames(names []string) map[string]int {
	namesIndex := make(map[string]int)
	for i, n := range names {
		key := utils.NormalizeClassName(n)
		if _, ok := namesIndex[key]; !ok {
			namesIndex[key] = i
		}
	}
	return namesIndex
}

func NewDataset(names ...string) *Dataset {
	return &Dataset{
		Train:      filepath.ToSlash(filepath.Join(utils.ImagesDir, string(utils.SplitTrain))),
		Val:        filepath.ToSlash(filepath.Join(utils.ImagesDir, string(utils.SplitVal))),
		Test:       filepath.ToSlash(filepath.Join(utils.ImagesDir, string(utils.SplitTest))),
		Names:      names,
		NamesCount: len(names),
		namesIndex: indexNames(names),
	}
}

func LoadDataset(fs afero.Fs, src string) (*Dataset, error) {
	f, err := afero.ReadFile(fs, src)
	if err != nil {
		return nil, err
	}

	conf := new(Dataset)
	if err = yaml.Unmarshal(f, conf); err != nil {
		return nil, err
	}
	conf.namesIndex = indexNames(conf.Names)

	return conf, nil
}

func SaveDataset(fs afero.Fs, conf Dataset, dest string) error {
	b, err := conf.YAMLMarshal()
	if err != nil {
		return err
	}

	return afero.WriteFile(fs, filepath.Join(dest, utils.DataYAML), b, os.ModePerm)
}
