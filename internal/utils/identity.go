package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// IDDelimiter separates the project identifier prefix from the original
// filename, and the ids inside a compound identifier.
const IDDelimiter = "_"

var digitRuns = regexp.MustCompile(`\d+`)

// PrefixName tags a filename with the project it was copied from.
func PrefixName(projectID int, name string) string {
	return strconv.Itoa(projectID) + IDDelimiter + name
}

// PrefixToken returns the text before the first delimiter. Names without a
// delimiter are returned whole.
func PrefixToken(name string) string {
	token, _, _ := strings.Cut(name, IDDelimiter)
	return token
}

// ParseProjectID parses the integer project prefix of a copied filename.
func ParseProjectID(name string) (int, error) {
	token, _, found := strings.Cut(name, IDDelimiter)
	if !found {
		return 0, NewException(ErrParseFailed, nil, "no project prefix in "+name)
	}
	if token == "" || strings.TrimLeft(token, "0123456789") != "" {
		return 0, NewException(ErrParseFailed, nil, "project prefix of "+name+" is not a number")
	}
	id, err := strconv.Atoi(token)
	if err != nil {
		return 0, NewException(ErrParseFailed, err, "project prefix of "+name)
	}
	return id, nil
}

// DigitRuns extracts every maximal run of digits from name, in order.
func DigitRuns(name string) []string {
	return digitRuns.FindAllString(name, -1)
}

// DigitSet is DigitRuns as a set.
func DigitSet(name string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, d := range DigitRuns(name) {
		set[d] = struct{}{}
	}
	return set
}

// SplitIdentifier breaks a compound identifier such as "60_61" into ids.
func SplitIdentifier(identifier string) []string {
	var ids []string
	for _, p := range strings.Split(identifier, IDDelimiter) {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
