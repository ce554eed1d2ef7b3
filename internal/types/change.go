package types

// ChangeType classifies a difference between two snapshots
type ChangeType string

const (
	// ChangeAdded marks a record present only in the current snapshot
	ChangeAdded ChangeType = "added"
	// ChangeRemoved marks a record present only in the baseline snapshot
	ChangeRemoved ChangeType = "removed"
	// ChangeUpdated marks a record present in both snapshots with different content
	ChangeUpdated ChangeType = "updated"
)

// Valid reports whether c is one of the known change types.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeAdded, ChangeRemoved, ChangeUpdated:
		return true
	}
	return false
}

// ChangeEvent is one classified difference for a group. For removals the
// Location is the baseline record; otherwise it is the current record.
type ChangeEvent struct {
	ChangeType ChangeType     `json:"changeType"`
	Group      string         `json:"group"`
	Location   LocationRecord `json:"location"`
}
