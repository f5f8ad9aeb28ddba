package utils

import "testing"

func TestClassNameSyncKey(t *testing.T) {
	s := NewClassNameSync(map[string][]string{
		"car": {"Van", "automobile"},
	})

	tests := map[string]string{
		"Car":        "car",
		" van ":      "car",
		"AUTOMOBILE": "car",
		"Pallet":     "pallet",
		"  Box  ":    "box",
	}
	for in, want := range tests {
		if got := s.Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}

	if s.GetCrossName("truck") != nil {
		t.Error("unknown class must not have a cross name")
	}
}

func TestFindSplit(t *testing.T) {
	for name, want := range map[string]Split{"valid": SplitVal, "training": SplitTrain, "test": SplitTest} {
		got := FindSplit(name)
		if got == nil || *got != want {
			t.Errorf("FindSplit(%q) = %v, want %s", name, got, want)
		}
	}
	if IsSplitDetected("labels") {
		t.Error("labels is not a split")
	}
}
