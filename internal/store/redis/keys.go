package redis

import (
	"strings"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

const (
	// KeyPrefixEntry is the prefix for entry keys: daylog:entry:<owner>:<date>
	KeyPrefixEntry = "daylog:entry:"
	// KeyPrefixDates is the prefix for the per-owner set of stored dates
	KeyPrefixDates = "daylog:dates:"
)

// EntryKey returns the Redis key for one owner's entry on date.
// The date is last so owners containing ':' cannot collide.
func EntryKey(owner domain.Owner, date domain.DateKey) string {
	return KeyPrefixEntry + string(owner) + ":" + string(date)
}

// EntryKeys returns the keys an entry for date may live under, canonical
// first, then the legacy unpadded one when it differs.
func EntryKeys(owner domain.Owner, date domain.DateKey) []string {
	spellings := date.Spellings()
	keys := make([]string, len(spellings))
	for i, d := range spellings {
		keys[i] = EntryKey(owner, domain.DateKey(d))
	}
	return keys
}

// DateOf returns the raw date part of an entry key of owner. Keys of
// another owner sharing the prefix (e.g. "alice" vs "alice:x") are rejected.
func DateOf(owner domain.Owner, key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, EntryKey(owner, ""))
	if !ok || rest == "" || strings.Contains(rest, ":") {
		return "", false
	}
	return rest, true
}

// DatesKey returns the key of the set holding every date owner has an entry for
func DatesKey(owner domain.Owner) string {
	return KeyPrefixDates + string(owner)
}
