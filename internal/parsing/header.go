package parsing

import (
	"regexp"
	"strings"
)

// Role is a logical column of a locations table
type Role string

const (
	RoleLocation     Role = "location"
	RoleAddress      Role = "address"
	RoleDay          Role = "day"
	RoleTimes        Role = "times"
	RoleInstructions Role = "instructions"
	RoleDateAdded    Role = "dateAdded"
)

// headerRule matches one role against a trimmed, lower-cased header cell.
type headerRule struct {
	role     Role
	pattern  *regexp.Regexp
	required bool
}

// headerRules is evaluated in order; the first header matching a rule wins.
var headerRules = []headerRule{
	{RoleLocation, regexp.MustCompile(`location`), true},
	{RoleAddress, regexp.MustCompile(`address`), true},
	{RoleDay, regexp.MustCompile(`^day$`), true},
	{RoleTimes, regexp.MustCompile(`^time`), true},
	{RoleInstructions, regexp.MustCompile(`what to do`), false},
	{RoleDateAdded, regexp.MustCompile(`date.added`), false},
}

// ColumnMap holds the cell index of each role. Optional roles that were not
// found are -1.
type ColumnMap struct {
	Location     int
	Address      int
	Day          int
	Times        int
	Instructions int
	DateAdded    int
}

// ResolveHeader maps header cells to column roles.
func ResolveHeader(header []string) (ColumnMap, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	indexes := make(map[Role]int, len(headerRules))
	for _, rule := range headerRules {
		idx := -1
		for i, h := range normalized {
			if rule.pattern.MatchString(h) {
				idx = i
				break
			}
		}
		if idx == -1 && rule.required {
			return ColumnMap{}, &HeaderResolutionError{
				Role:    rule.role,
				Pattern: rule.pattern.String(),
				Headers: normalized,
			}
		}
		indexes[rule.role] = idx
	}

	return ColumnMap{
		Location:     indexes[RoleLocation],
		Address:      indexes[RoleAddress],
		Day:          indexes[RoleDay],
		Times:        indexes[RoleTimes],
		Instructions: indexes[RoleInstructions],
		DateAdded:    indexes[RoleDateAdded],
	}, nil
}
