// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/loi-watcher/internal/diff"
	"github.com/jonathan/loi-watcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

var changeMarkers = map[types.ChangeType]string{
	types.ChangeAdded:   "+",
	types.ChangeUpdated: "~",
	types.ChangeRemoved: "-",
}

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintIndexSummary outputs the number of sites and records per group.
func (p *Printer) PrintIndexSummary(idx types.Index) {
	if len(idx) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Groups:   %d\n", len(idx)))
	sb.WriteString(fmt.Sprintf("Records:  %d\n\n", idx.Len()))

	groups := idx.Groups()
	count := min(len(groups), maxItemsToShow)
	for i := 0; i < count; i++ {
		locations := idx[groups[i]]
		records := 0
		for _, keys := range locations {
			records += len(keys)
		}
		name := groups[i]
		if name == "" {
			name = "(no caption)"
		}
		sb.WriteString(fmt.Sprintf("  • %s: %d sites, %d records\n", name, len(locations), records))
	}
	if len(groups) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(groups)-maxItemsToShow))
	}

	p.printBox("CURRENT SNAPSHOT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintChanges outputs the change counts followed by the first few changes.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintChanges(events []types.ChangeEvent) {
	if len(events) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO CHANGES DETECTED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	summary := diff.Summarize(events)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Added: %d  Updated: %d  Removed: %d\n\n", summary.Added, summary.Updated, summary.Removed))

	count := min(len(events), maxItemsToShow)
	for i := 0; i < count; i++ {
		ev := events[i]
		sb.WriteString(fmt.Sprintf("%s %s\n", changeMarkers[ev.ChangeType], ev.Location.Location))
		sb.WriteString(fmt.Sprintf("  %s %s", ev.Location.Day, ev.Location.Times))
		if ev.Group != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", ev.Group))
		}
		sb.WriteString("\n")
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(events) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more changes", len(events)-maxItemsToShow))
	}

	p.printBox("CHANGES", strings.TrimSuffix(sb.String(), "\n"))
}
