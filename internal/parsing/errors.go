package parsing

import (
	"fmt"
	"strings"
)

// StructureError represents a page that lacks the expected content region or
// cannot be parsed as HTML at all.
type StructureError struct {
	Message string
	Cause   error
}

func (e *StructureError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("structure error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("structure error: %s", e.Message)
}

func (e *StructureError) Unwrap() error {
	return e.Cause
}

// HeaderResolutionError represents a table header with no column for a required role
type HeaderResolutionError struct {
	Group   string
	Role    Role
	Pattern string
	Headers []string
}

func (e *HeaderResolutionError) Error() string {
	return fmt.Sprintf("header resolution error: table %q has no %s column matching %s (headers: %s)",
		e.Group, e.Role, e.Pattern, strings.Join(e.Headers, ", "))
}
