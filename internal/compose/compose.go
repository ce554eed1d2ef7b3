// Package compose renders change events as short human-readable posts.
package compose

import (
	"strings"
	"unicode/utf8"

	"github.com/jonathan/loi-watcher/internal/types"
)

// DefaultMaxLength is the body length limit, in runes, when Options leaves it unset.
const DefaultMaxLength = 250

// DefaultEllipsis marks a truncated body.
const DefaultEllipsis = "…"

// Options controls post rendering.
type Options struct {
	// Link is appended on its own line after the body. Empty means no link.
	Link string
	// MaxLength limits the body, excluding the link.
	MaxLength int
	Ellipsis  string
}

var headlines = map[types.ChangeType]string{
	types.ChangeAdded:   "New location of interest",
	types.ChangeUpdated: "Updated location of interest",
	types.ChangeRemoved: "Location of interest removed",
}

// Compose renders event as a post.
func Compose(event types.ChangeEvent, opts Options) string {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.Ellipsis == "" {
		opts.Ellipsis = DefaultEllipsis
	}

	rec := event.Location

	var sb strings.Builder
	sb.WriteString(Headline(event.ChangeType))
	if event.Group != "" {
		sb.WriteString(" (" + event.Group + ")")
	}
	sb.WriteString("\n")
	sb.WriteString(rec.Location)
	if rec.Address != "" {
		sb.WriteString(", " + rec.Address)
	}
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(rec.Day + " " + rec.Times))
	if event.ChangeType != types.ChangeRemoved && rec.Instructions != nil && *rec.Instructions != "" {
		sb.WriteString("\n" + *rec.Instructions)
	}

	body := Truncate(sb.String(), opts.MaxLength, opts.Ellipsis)
	if opts.Link == "" {
		return body
	}
	return body + "\n" + opts.Link
}

// Headline returns the first line used for a change type.
func Headline(changeType types.ChangeType) string {
	if !changeType.Valid() {
		return "Location of interest changed"
	}
	return headlines[changeType]
}

// Truncate shortens s to at most limit runes, ending in ellipsis when cut.
// A limit of zero or less yields "".
func Truncate(s string, limit int, ellipsis string) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(ellipsis)
	if keep <= 0 {
		return string([]rune(ellipsis)[:limit])
	}
	return strings.TrimRightFunc(string([]rune(s)[:keep]), isTrailingSpace) + ellipsis
}

func isTrailingSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
