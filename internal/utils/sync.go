package utils

import (
	"strings"

	"github.com/goccy/go-json"
)

// ClassNameSync folds class name aliases onto a canonical name.
// Lookups are case-insensitive and ignore surrounding whitespace.
type ClassNameSync struct {
	index map[string]string
	raw   map[string][]string
}

// NewClassNameSync builds the lookup table from canonical -> aliases.
func NewClassNameSync(raw map[string][]string) ClassNameSync {
	s := ClassNameSync{raw: raw, index: make(map[string]string)}

	// inverse raw to faster indexing
	// {"car": ["car", "van"]} -> {"car": "car", "van": "car"}
	for k, v := range raw {
		canonical := NormalizeClassName(k)
		s.index[canonical] = canonical
		for _, i := range v {
			s.index[NormalizeClassName(i)] = canonical
		}
	}

	return s
}

func (s ClassNameSync) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"index": s.index,
		"raw":   s.raw,
	})
}

func (s ClassNameSync) GetCrossName(class string) *string {
	c := s.index[NormalizeClassName(class)]
	if c == "" {
		return nil
	}
	return &c
}

// Key returns the equality key of a class name: its normalized form,
// replaced by the canonical name when it is a known alias.
func (s ClassNameSync) Key(class string) string {
	if c := s.GetCrossName(class); c != nil {
		return *c
	}
	return NormalizeClassName(class)
}

func NormalizeClassName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
