// Package diff compares two snapshot indexes and classifies their differences.
package diff

import "github.com/jonathan/loi-watcher/internal/types"

// Summary counts change events by type
type Summary struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Total returns the number of events counted.
func (s Summary) Total() int {
	return s.Added + s.Updated + s.Removed
}

// Diff classifies every (group, location, key) path of baseline and current.
// Paths only in current are Added, paths in both with unequal records are
// Updated (carrying the current record), and paths only in baseline are
// Removed (carrying the baseline record). Either index may be nil or empty.
//
// Added and Updated events come first, followed by Removed events; within each
// pass groups, locations and keys are visited in ascending order.
func Diff(baseline, current types.Index) []types.ChangeEvent {
	changes := make([]types.ChangeEvent, 0)

	walk(current, func(group, location, key string, rec types.LocationRecord) {
		prev, ok := baseline.Get(group, location, key)
		switch {
		case !ok:
			changes = append(changes, types.ChangeEvent{ChangeType: types.ChangeAdded, Group: group, Location: rec})
		case !prev.Equal(rec):
			changes = append(changes, types.ChangeEvent{ChangeType: types.ChangeUpdated, Group: group, Location: rec})
		}
	})

	walk(baseline, func(group, location, key string, rec types.LocationRecord) {
		if _, ok := current.Get(group, location, key); !ok {
			changes = append(changes, types.ChangeEvent{ChangeType: types.ChangeRemoved, Group: group, Location: rec})
		}
	})

	return changes
}

// Summarize counts events by change type.
func Summarize(changes []types.ChangeEvent) Summary {
	var s Summary
	for _, c := range changes {
		switch c.ChangeType {
		case types.ChangeAdded:
			s.Added++
		case types.ChangeUpdated:
			s.Updated++
		case types.ChangeRemoved:
			s.Removed++
		}
	}
	return s
}

func walk(idx types.Index, visit func(group, location, key string, rec types.LocationRecord)) {
	for _, group := range idx.Groups() {
		locations := idx[group]
		for _, location := range types.SortedKeys(locations) {
			keys := locations[location]
			for _, key := range types.SortedKeys(keys) {
				visit(group, location, key, keys[key])
			}
		}
	}
}
