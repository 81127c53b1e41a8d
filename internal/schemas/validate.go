// Package schemas provides the JSON Schema contracts for stage outputs and
// validation of generated documents against them. Schemas are embedded at
// compile time; the raw schema text is also injected into stage prompts so
// the model sees the exact contract its output is checked against.
package schemas

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Embedded schema file names.
const (
	AnalysisReport = "analysis_report.json"
	FinalReport    = "final_report.json"
)

//go:embed *.json
var schemaFiles embed.FS

// Get returns the raw schema document by file name.
func Get(name string) (string, error) {
	data, err := schemaFiles.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read schema %s: %w", name, err)
	}
	return string(data), nil
}

// MustGet returns the raw schema document, panicking if it is missing.
// Use this for schemas that are required at initialization time.
func MustGet(name string) string {
	schema, err := Get(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load schema: %v", err))
	}
	return schema
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError represents a schema validation failure with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("document does not conform to %s:\n", ve.Schema))
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateString validates a JSON document against a named embedded schema.
// Returns nil when the document conforms, a *ValidationError when it does
// not, and a generic error when the document or schema cannot be loaded.
func ValidateString(name, document string) error {
	schema, err := Get(name)
	if err != nil {
		return err
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewStringLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation against %s failed: %w", name, err)
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
