package validation

import (
	"fmt"
	"strings"
)

// Error collects field-level validation failures keyed by JSON field name.
// Handlers return Fields as the details of a 400 response.
type Error struct {
	Fields map[string]string
}

// Error joins all field messages into one line.
func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(msgs, "; ")
}
