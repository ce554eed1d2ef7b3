// Package schemas embeds the JSON Schemas for persisted snapshots and change messages.
package schemas

import "embed"

// Schema file names.
const (
	Snapshot    = "snapshot.schema.json"
	ChangeEvent = "change_event.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Read returns the content of an embedded schema file.
func Read(name string) ([]byte, error) {
	return files.ReadFile(name)
}
