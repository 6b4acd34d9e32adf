package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Errors maps a field name to a human-readable message.
// A field with no entry is valid.
type Errors map[string]string

// Set records msg for field. An empty msg clears the field.
func (e Errors) Set(field, msg string) {
	if msg == "" {
		delete(e, field)
		return
	}
	e[field] = msg
}

func (e Errors) Empty() bool { return len(e) == 0 }

// Blocks reports whether any of the given fields has an error.
// With no fields it behaves like !Empty().
func (e Errors) Blocks(fields ...string) bool {
	if len(fields) == 0 {
		return !e.Empty()
	}
	for _, f := range fields {
		if _, ok := e[f]; ok {
			return true
		}
	}
	return false
}

// Merge copies every entry of other into e, prefixing field names with prefix.
func (e Errors) Merge(prefix string, other Errors) {
	for f, msg := range other {
		e[prefix+f] = msg
	}
}

// Fields returns the field names in sorted order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// FieldErrors is returned by save operations that were gated by validation.
type FieldErrors struct {
	Errors Errors
}

func (fe *FieldErrors) Error() string {
	parts := make([]string, 0, len(fe.Errors))
	for _, f := range fe.Errors.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", f, fe.Errors[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsError returns nil when e is empty, otherwise a *FieldErrors.
func (e Errors) AsError() error {
	if e.Empty() {
		return nil
	}
	return &FieldErrors{Errors: e}
}
