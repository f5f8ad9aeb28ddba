package utils

import (
	"strconv"
	"strings"
)

// LabelRecord is one line of a YOLO label file. Tail holds everything after
// the class index, including the separating whitespace, byte for byte.
type LabelRecord struct {
	Class int
	Tail  string
}

func (r LabelRecord) String() string {
	return strconv.Itoa(r.Class) + r.Tail
}

// ParseLabelLine parses one label line. ok is false for blank lines.
func ParseLabelLine(line string) (rec LabelRecord, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return rec, false, nil
	}

	end := strings.IndexAny(line, " \t")
	if end < 0 {
		end = len(line)
	}
	class, err := strconv.Atoi(line[:end])
	if err != nil || class < 0 {
		return rec, false, NewException(ErrParseFailed, err, "class index "+strconv.Quote(line[:end]))
	}

	return LabelRecord{Class: class, Tail: line[end:]}, true, nil
}

// SplitLines splits file content into lines, accepting both \n and \r\n.
func SplitLines(body []byte) []string {
	lines := strings.Split(string(body), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// JoinRecords renders records one per line with a trailing newline.
// No records render as an empty file.
func JoinRecords(records []LabelRecord) []byte {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
