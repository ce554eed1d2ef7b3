// Package index groups normalized records into the nested snapshot Index.
package index

import (
	"strings"
	"unicode"

	"github.com/jonathan/loi-watcher/internal/types"
)

// keySeparator joins day and times before canonicalization. Whitespace is
// stripped afterwards, so only the hyphen survives in the key.
const keySeparator = " - "

// CompositeKey canonicalizes a schedule so that punctuation and spacing drift
// ("9.00am" vs "9:00 am") does not register as a different visit.
// Schedules that differ only in that drift collapse to the same key.
func CompositeKey(day, times string) string {
	joined := strings.ReplaceAll(day+keySeparator+times, ".", ":")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, joined)
}

// BuildGroup keys the records of one group by location and composite key.
// A later record with the same location and key replaces an earlier one.
func BuildGroup(records []types.LocationRecord) map[string]map[string]types.LocationRecord {
	byLocation := make(map[string]map[string]types.LocationRecord)
	for _, rec := range records {
		keys, ok := byLocation[rec.Location]
		if !ok {
			keys = make(map[string]types.LocationRecord)
			byLocation[rec.Location] = keys
		}
		keys[CompositeKey(rec.Day, rec.Times)] = rec
	}
	return byLocation
}

// Build indexes every group. Groups with no records are kept as empty entries.
func Build(groups map[string][]types.LocationRecord) types.Index {
	idx := types.NewIndex()
	for group, records := range groups {
		idx[group] = BuildGroup(records)
	}
	return idx
}
