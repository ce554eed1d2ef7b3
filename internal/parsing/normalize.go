package parsing

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/loi-watcher/internal/types"
)

// NormalizeRow builds a record from one body row. It never fails: a required
// column beyond the end of a short row reads as "", and an optional column
// that is unresolved or beyond the end of the row is left nil.
func NormalizeRow(cols ColumnMap, cells []string) types.LocationRecord {
	return types.LocationRecord{
		Location:     required(cells, cols.Location),
		Address:      required(cells, cols.Address),
		Day:          required(cells, cols.Day),
		Times:        required(cells, cols.Times),
		Instructions: optional(cells, cols.Instructions),
		DateAdded:    optional(cells, cols.DateAdded),
	}
}

// NormalizeText trims surrounding whitespace and applies Unicode NFC normalization.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func required(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return NormalizeText(cells[idx])
}

func optional(cells []string, idx int) *string {
	if idx < 0 || idx >= len(cells) {
		return nil
	}
	return types.StringPtr(NormalizeText(cells[idx]))
}
