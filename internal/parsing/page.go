package parsing

import (
	"errors"

	"github.com/jonathan/loi-watcher/internal/types"
)

// ParseTable resolves the table's header and normalizes every body row.
func ParseTable(table Table) ([]types.LocationRecord, error) {
	cols, err := ResolveHeader(table.Header)
	if err != nil {
		var hre *HeaderResolutionError
		if errors.As(err, &hre) {
			hre.Group = table.Group
		}
		return nil, err
	}

	records := make([]types.LocationRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, NormalizeRow(cols, row))
	}
	return records, nil
}

// ParsePage extracts and normalizes every table on the page, keyed by group.
// Tables sharing a caption have their records concatenated in page order.
func ParsePage(html string, mainSelector string) (map[string][]types.LocationRecord, error) {
	tables, err := ExtractTables(html, mainSelector)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]types.LocationRecord, len(tables))
	for _, table := range tables {
		records, err := ParseTable(table)
		if err != nil {
			return nil, err
		}
		groups[table.Group] = append(groups[table.Group], records...)
	}
	return groups, nil
}
