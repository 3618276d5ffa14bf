package migration

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DefaultWidth is the default zero-padding of the ordinal in file names.
const DefaultWidth = 6

// Extension is the migration file extension.
const Extension = ".json"

var nameRe = regexp.MustCompile(`^(\d+)-(\d+)\.json$`)

// Sequence orders migrations: by ordinal, then by creation time in Unix
// milliseconds.
type Sequence struct {
	Ordinal   int
	Timestamp int64
}

// ParseName parses a migration file name such as "000004-1700000000000.json".
func ParseName(name string) (Sequence, error) {
	m := nameRe.FindStringSubmatch(name)
	if m == nil {
		return Sequence{}, fmt.Errorf("invalid migration file name %q", name)
	}
	ordinal, err := strconv.Atoi(m[1])
	if err != nil {
		return Sequence{}, fmt.Errorf("invalid migration ordinal in %q: %w", name, err)
	}
	ts, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Sequence{}, fmt.Errorf("invalid migration timestamp in %q: %w", name, err)
	}
	return Sequence{Ordinal: ordinal, Timestamp: ts}, nil
}

// FileName formats the sequence with the ordinal padded to width digits.
func (s Sequence) FileName(width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	return fmt.Sprintf("%0*d-%d%s", width, s.Ordinal, s.Timestamp, Extension)
}

// Compare returns -1, 0 or +1.
func (s Sequence) Compare(o Sequence) int {
	switch {
	case s.Ordinal < o.Ordinal:
		return -1
	case s.Ordinal > o.Ordinal:
		return 1
	case s.Timestamp < o.Timestamp:
		return -1
	case s.Timestamp > o.Timestamp:
		return 1
	}
	return 0
}

// Next returns the sequence following s, stamped with now.
func (s Sequence) Next(now time.Time) Sequence {
	return Sequence{Ordinal: s.Ordinal + 1, Timestamp: now.UnixMilli()}
}
