package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Structural bounds enforced on every stored twin.
const (
	MaxNameRunes    = 50
	MinPersonaRunes = 50
)

// ValidationError reports a structural constraint violation on a single
// field. The message is safe to return to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateTwin checks the structural constraints on a twin's name and persona.
// Both values are expected to be trimmed already.
func ValidateTwin(name, persona string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name", "name is required")
	}
	if n := utf8.RuneCountInString(name); n > MaxNameRunes {
		return NewValidationError("name", "name must be at most %d characters", MaxNameRunes)
	}
	if strings.TrimSpace(persona) == "" {
		return NewValidationError("persona", "persona is required")
	}
	if n := utf8.RuneCountInString(persona); n < MinPersonaRunes {
		return NewValidationError("persona", "persona description must be at least %d characters", MinPersonaRunes)
	}
	return nil
}
