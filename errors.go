package changeset

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/changeset/internal/ordered"
)

// Error messages recorded by the built-in validators.
const (
	MsgRequired   = "required"
	MsgFormat     = "format"
	MsgLength     = "length"
	MsgAcceptance = "acceptance"
	MsgInclusion  = "inclusion"
	MsgExclusion  = "exclusion"
	MsgTag        = "tag"
)

// Configuration errors. They describe a defect in how a validator chain was
// built, never invalid input, and are matched with errors.Is.
var (
	ErrUnknownComparator = errors.New("unknown comparator")
	ErrInvalidThreshold  = errors.New("threshold is not a number")
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrInvalidTag        = errors.New("invalid validation tag")
)

// ConfigError reports a misconfigured validator. Op names the constructor or
// validator that rejected the configuration and Name the offending input.
type ConfigError struct {
	Op   string
	Name string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("changeset: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FieldError is a single validation failure recorded against a field.
// Message is a fixed tag such as "required"; Values carries diagnostic
// arguments (the comparator name and threshold, the pattern, ...); Meta is an
// optional caller-supplied annotation.
type FieldError struct {
	Message string `json:"message"`
	Values  []any  `json:"values"`
	Meta    any    `json:"meta,omitempty"`
}

func (e FieldError) String() string {
	if len(e.Values) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s %v", e.Message, e.Values)
}

// Errors maps fields to their error records. Fields iterate in the order they
// first received an error and each list keeps insertion order. Errors
// implements error.
type Errors struct {
	m *ordered.Map[string, []FieldError]
}

// Len returns the number of fields with at least one error.
func (e Errors) Len() int { return e.m.Len() }

// Count returns the total number of error records across all fields.
func (e Errors) Count() int {
	n := 0
	e.m.Each(func(_ string, l []FieldError) bool {
		n += len(l)
		return true
	})
	return n
}

// Fields returns the fields carrying errors in insertion order.
func (e Errors) Fields() []string { return e.m.Keys() }

// Has reports whether field has any error.
func (e Errors) Has(field string) bool {
	l, _ := e.m.Get(field)
	return len(l) > 0
}

// Get returns a copy of the error list of field.
func (e Errors) Get(field string) []FieldError {
	l, ok := e.m.Get(field)
	if !ok {
		return nil
	}
	return append([]FieldError(nil), l...)
}

// HasMessage reports whether any field has an error with the given message.
func (e Errors) HasMessage(msg string) bool {
	found := false
	e.m.Each(func(_ string, l []FieldError) bool {
		for _, fe := range l {
			if fe.Message == msg {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// Each calls fn for every field in insertion order until fn returns false.
func (e Errors) Each(fn func(field string, errs []FieldError) bool) {
	e.m.Each(func(k string, l []FieldError) bool {
		return fn(k, append([]FieldError(nil), l...))
	})
}

// ToMap copies the errors into a builtin map.
func (e Errors) ToMap() map[string][]FieldError {
	out := make(map[string][]FieldError, e.Len())
	e.Each(func(k string, l []FieldError) bool {
		out[k] = l
		return true
	})
	return out
}

// Error summarizes the first few error records.
func (e Errors) Error() string {
	total := e.Count()
	if total == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	shown := 0
	e.m.Each(func(field string, l []FieldError) bool {
		for _, fe := range l {
			if shown == maxShown {
				return false
			}
			if shown > 0 {
				b.WriteString("; ")
			}
			// e.g. format at name
			fmt.Fprintf(b, "%s at %s", fe.Message, field)
			shown++
		}
		return true
	})
	if total > shown {
		fmt.Fprintf(b, "; ... (total %d)", total)
	}
	return b.String()
}

// MarshalJSON encodes the errors as an object keeping field order.
func (e Errors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeObject(&buf, e.m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AsErrors extracts Errors from an error using errors.As internally.
func AsErrors(err error) (Errors, bool) {
	if err == nil {
		return Errors{}, false
	}
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return Errors{}, false
}
