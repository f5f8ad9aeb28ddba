package utils

// Split is one of the fixed dataset partitions.
type Split string

const (
	SplitTrain Split = "train"
	SplitVal   Split = "val"
	SplitTest  Split = "test"
)

// Splits lists the partitions in the order they are processed and reported.
var Splits = []Split{SplitTrain, SplitVal, SplitTest}

var (
	splitCrossName = map[string]Split{
		"test":       SplitTest,
		"tests":      SplitTest,
		"testing":    SplitTest,
		"testings":   SplitTest,
		"train":      SplitTrain,
		"training":   SplitTrain,
		"val":        SplitVal,
		"valid":      SplitVal,
		"validation": SplitVal,
	}
)

// FindSplit resolves a folder name (including common aliases such as
// "valid" or "training") to its split. Returns nil for unknown names.
func FindSplit(name string) *Split {
	if s := splitCrossName[name]; s != "" {
		return &s
	}
	return nil
}

func IsSplitDetected(name string) bool {
	return FindSplit(name) != nil
}
