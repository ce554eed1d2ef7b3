// Package schemas provides JSON Schema validation for persisted snapshots and change messages.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	embedded "github.com/jonathan/loi-watcher/schemas"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed")
	if ve.Schema != "" {
		sb.WriteString(" against " + ve.Schema)
	}
	sb.WriteString(":\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateSnapshot validates a serialized snapshot index.
func ValidateSnapshot(data []byte) error {
	return ValidateEmbedded(embedded.Snapshot, data)
}

// ValidateChangeEvent validates a serialized change message payload.
func ValidateChangeEvent(data []byte) error {
	return ValidateEmbedded(embedded.ChangeEvent, data)
}

// ValidateEmbedded validates JSON bytes against one of the embedded schemas.
func ValidateEmbedded(schemaName string, data []byte) error {
	schema, err := embedded.Read(schemaName)
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaName,
			Message: "schema not embedded",
			Cause:   err,
		}
	}
	return validate(schemaName, gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(data))
}

func validate(name string, schemaLoader, documentLoader gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    name,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
