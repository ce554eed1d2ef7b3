package snapshot

import "fmt"

// CorruptSnapshotError represents a stored snapshot that is not a valid Index
type CorruptSnapshotError struct {
	Source string
	Cause  error
}

func (e *CorruptSnapshotError) Error() string {
	return fmt.Sprintf("corrupt snapshot at %s: %v", e.Source, e.Cause)
}

func (e *CorruptSnapshotError) Unwrap() error {
	return e.Cause
}
