package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateKeyLayout is the canonical, zero-padded layout of a DateKey.
const DateKeyLayout = "2006-01-02"

// DateKey identifies a single calendar day. It is the storage key of a
// diary entry, so its canonical form must never change.
//
// Only keys built by ParseDateKey or FromTime are canonical (zero-padded).
// Chronological comparisons always go through the parsed value.
type DateKey string

// ParseDateKey validates s and returns its canonical form.
// Both "2024-01-05" and the unpadded "2024-1-5" are accepted.
// Anything that is not a real calendar day fails with ErrMalformedDate.
func ParseDateKey(s string) (DateKey, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return "", fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}

	year, errY := parseDatePart(parts[0], 4)
	month, errM := parseDatePart(parts[1], 2)
	day, errD := parseDatePart(parts[2], 2)
	if errY != nil || errM != nil || errD != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}

	return DateKey(t.Format(DateKeyLayout)), nil
}

// MustParseDateKey is ParseDateKey for literals known to be valid.
func MustParseDateKey(s string) DateKey {
	k, err := ParseDateKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func parseDatePart(s string, maxLen int) (int, error) {
	if s == "" || len(s) > maxLen {
		return 0, fmt.Errorf("bad length")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a digit")
		}
	}
	return strconv.Atoi(s)
}

// FromTime returns the key of the calendar day t falls on, in t's location.
func FromTime(t time.Time) DateKey {
	return DateKey(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(DateKeyLayout))
}

// Today returns the key for the current local day.
func Today() DateKey {
	return FromTime(time.Now())
}

// Time parses the key into midnight UTC of its day.
func (k DateKey) Time() (time.Time, error) {
	canonical, err := ParseDateKey(string(k))
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(DateKeyLayout, string(canonical))
}

// Offset returns the key days after k (negative moves backwards).
func (k DateKey) Offset(days int) (DateKey, error) {
	t, err := k.Time()
	if err != nil {
		return "", err
	}
	return FromTime(t.AddDate(0, 0, days)), nil
}

// Before reports whether k is chronologically earlier than other.
// Unparseable keys sort after parseable ones, then by string.
func (k DateKey) Before(other DateKey) bool {
	return CompareDateKeys(k, other) < 0
}

// CompareDateKeys orders keys by parsed calendar day.
func CompareDateKeys(a, b DateKey) int {
	ta, errA := a.Time()
	tb, errB := b.Time()
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(string(a), string(b))
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return ta.Compare(tb)
}

// Unpadded returns the legacy spelling of k ("2024-1-5"), as older clients
// wrote it. Keys that do not parse are returned unchanged.
func (k DateKey) Unpadded() string {
	t, err := k.Time()
	if err != nil {
		return string(k)
	}
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// Spellings returns every form an entry for k may be stored under,
// canonical first. Only the legacy unpadded form is tried besides it.
func (k DateKey) Spellings() []string {
	canonical, err := ParseDateKey(string(k))
	if err != nil {
		return []string{string(k)}
	}
	legacy := canonical.Unpadded()
	if legacy == string(canonical) {
		return []string{legacy}
	}
	return []string{string(canonical), legacy}
}

// UniqueDateKeys canonicalizes keys, drops the unparseable ones and
// duplicates, and returns them oldest first.
func UniqueDateKeys(keys []string) []DateKey {
	seen := make(map[DateKey]struct{}, len(keys))
	out := make([]DateKey, 0, len(keys))
	for _, raw := range keys {
		k, err := ParseDateKey(raw)
		if err != nil {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (k DateKey) String() string { return string(k) }
