package services

import "fmt"

// ValidationError reports caller mistakes: unknown products, bad
// quantities, out-of-order checkout steps. The bot layer turns these into
// friendly replies instead of logging them as failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
