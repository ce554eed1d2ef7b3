package types

import "sort"

// Index is the nested snapshot representation:
// group -> location name -> composite schedule key -> record.
type Index map[string]map[string]map[string]LocationRecord

// NewIndex returns an empty, non-nil Index.
func NewIndex() Index {
	return Index{}
}

// Get returns the record at the given path. Missing levels are treated as empty.
func (idx Index) Get(group, location, key string) (LocationRecord, bool) {
	rec, ok := idx[group][location][key]
	return rec, ok
}

// Put stores rec at the given path, overwriting any record already there.
func (idx Index) Put(group, key string, rec LocationRecord) {
	locations, ok := idx[group]
	if !ok {
		locations = make(map[string]map[string]LocationRecord)
		idx[group] = locations
	}
	keys, ok := locations[rec.Location]
	if !ok {
		keys = make(map[string]LocationRecord)
		locations[rec.Location] = keys
	}
	keys[key] = rec
}

// Len returns the number of records in the index.
func (idx Index) Len() int {
	n := 0
	for _, locations := range idx {
		for _, keys := range locations {
			n += len(keys)
		}
	}
	return n
}

// Groups returns the group names in ascending order.
func (idx Index) Groups() []string {
	return SortedKeys(idx)
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
