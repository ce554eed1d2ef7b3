// Package types provides type definitions for structured data used throughout the loi-watcher system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// LocationRecord represents a single published location of interest.
// Instructions and DateAdded are optional: nil means the source had no such
// column, while a pointer to "" means the column existed but the cell was empty.
type LocationRecord struct {
	Location     string  `json:"location"`
	Address      string  `json:"address"`
	Day          string  `json:"day"`
	Times        string  `json:"times"`
	Instructions *string `json:"instructions,omitempty"`
	DateAdded    *string `json:"dateAdded,omitempty"`
}

// Equal reports whether two records are structurally identical, including
// the presence of optional fields.
func (r LocationRecord) Equal(other LocationRecord) bool {
	return r.Location == other.Location &&
		r.Address == other.Address &&
		r.Day == other.Day &&
		r.Times == other.Times &&
		optionalEqual(r.Instructions, other.Instructions) &&
		optionalEqual(r.DateAdded, other.DateAdded)
}

func optionalEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StringPtr returns a pointer to s. Handy for building optional fields.
func StringPtr(s string) *string {
	return &s
}
