// Package parsing extracts location-of-interest tables from a published HTML
// page and normalizes their rows into typed records.
package parsing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMainSelector is the content region that holds the published tables.
const DefaultMainSelector = "#block-system-main"

// Table is one labeled table lifted out of the page. Cell text is raw; trimming
// and normalization happen in NormalizeRow.
type Table struct {
	Group  string
	Header []string
	Rows   [][]string
}

// ExtractTables parses html and returns every table inside the main content region.
// An empty mainSelector uses DefaultMainSelector. Zero tables is not an error.
func ExtractTables(html string, mainSelector string) ([]Table, error) {
	if mainSelector == "" {
		mainSelector = DefaultMainSelector
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &StructureError{
			Message: "failed to parse HTML",
			Cause:   err,
		}
	}

	main := doc.Find(mainSelector).First()
	if main.Length() == 0 {
		return nil, &StructureError{
			Message: "main content region " + mainSelector + " not found",
		}
	}

	tables := make([]Table, 0)
	main.Find("table").Each(func(_ int, s *goquery.Selection) {
		tables = append(tables, extractTable(s))
	})

	return tables, nil
}

func extractTable(table *goquery.Selection) Table {
	out := Table{
		Group: strings.TrimSpace(table.ChildrenFiltered("caption").First().Text()),
		Rows:  make([][]string, 0),
	}

	// Only rows that belong to this table, not to a nested one.
	rows := table.ChildrenFiltered("thead, tbody, tfoot").ChildrenFiltered("tr")

	headerRow := table.ChildrenFiltered("thead").ChildrenFiltered("tr").First()
	if headerRow.Length() == 0 {
		rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.ChildrenFiltered("th, td")
			if cells.Length() > 0 && cells.Length() == cells.Filter("th").Length() {
				headerRow = row
				return false
			}
			return true
		})
	}
	if headerRow.Length() > 0 {
		out.Header = cellTexts(headerRow.ChildrenFiltered("th"))
	}

	rows.Each(func(_ int, row *goquery.Selection) {
		if headerRow.Length() > 0 && row.IsSelection(headerRow) {
			return
		}
		cells := row.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return
		}
		out.Rows = append(out.Rows, cellTexts(cells))
	})

	return out
}

func cellTexts(cells *goquery.Selection) []string {
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, cell.Text())
	})
	return texts
}
