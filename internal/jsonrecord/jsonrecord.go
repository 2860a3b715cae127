// Package jsonrecord decodes flat JSON records and rejects duplicate
// top-level keys, which a plain map decode would silently collapse.
package jsonrecord

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// ErrNotObject is returned when the input is not a JSON object.
var ErrNotObject = errors.New("jsonrecord: expected a JSON object")

// DuplicateKeyError reports a top-level key that occurs more than once.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("jsonrecord: key %q duplicated", e.Key)
}

// Decode parses data as one JSON object. Empty input yields nil. Nested
// values are decoded as any.
func Decode(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		if tok == nil {
			return nil, nil
		}
		return nil, ErrNotObject
	}
	out := map[string]any{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("jsonrecord: unexpected token %v", tok)
		}
		if _, dup := out[key]; dup {
			return nil, &DuplicateKeyError{Key: key}
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		out[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("jsonrecord: trailing data after object")
	}
	return out, nil
}
