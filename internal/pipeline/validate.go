// Package pipeline ties DerivedData discovery, log parsing and notice
// filtering together. The CLI and the MCP server both go through it.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/davetashner/buildsignal/internal/signal"
)

// ValidationError describes a single validation failure for a Notice.
type ValidationError struct {
	// Field is the struct field that failed validation.
	Field string

	// Message describes what went wrong.
	Message string
}

// Error implements the error interface.
func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidateNotice checks a parsed notice and returns all validation errors
// found. An empty slice means the notice is usable.
func ValidateNotice(n signal.Notice) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(n.Title) == "" {
		errs = append(errs, ValidationError{
			Field:   "Title",
			Message: "must not be empty",
		})
	}

	if n.Type == "" {
		errs = append(errs, ValidationError{
			Field:   "Type",
			Message: "must not be empty",
		})
	}

	if n.StartingLine < 0 || n.EndingLine < 0 || n.StartingColumn < 0 || n.EndingColumn < 0 {
		errs = append(errs, ValidationError{
			Field:   "Location",
			Message: "line and column numbers must not be negative",
		})
	}

	if n.EndingLine > 0 && n.EndingLine < n.StartingLine {
		errs = append(errs, ValidationError{
			Field:   "EndingLine",
			Message: fmt.Sprintf("ends at line %d before it starts at %d", n.EndingLine, n.StartingLine),
		})
	}

	return errs
}
