package encoding

import (
	"fmt"
	"strings"
)

// FieldError describes a problem with one submitted field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found in a submission.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem for field.
func (e *ValidationError) Add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Has reports whether field has at least one recorded problem.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ByField groups messages by field name.
func (e *ValidationError) ByField() map[string][]string {
	out := make(map[string][]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = append(out[f.Field], f.Message)
	}
	return out
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// InvariantError reports a built command that violates the builder's
// preconditions. It indicates a defect in validation, not bad user input.
type InvariantError struct {
	Segment  int
	Position int
	Args     []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("segment %d: empty argument at position %d in %q", e.Segment, e.Position, e.Args)
}
