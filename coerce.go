package changeset

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
)

// missing reports absent, nil and empty-string values. Zero numbers and false
// are present.
func missing(v any, ok bool) bool {
	if !ok || v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// lengthOf measures v for Length: 0 when absent, the rune count of strings,
// Len() of collections, otherwise v as a number (NaN when not numeric).
func lengthOf(v any, ok bool) float64 {
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case interface{ Len() int }:
		return float64(t.Len())
	case interface{ Float64() (float64, error) }: // json.Number
		if f, err := t.Float64(); err == nil {
			return f
		}
		return math.NaN()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return float64(utf8.RuneCountInString(rv.String()))
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return float64(rv.Len())
	}
	if f, ok := numberOf(rv); ok {
		return f
	}
	f, err := cast.ToFloat64E(rv.Interface())
	if err != nil {
		return math.NaN()
	}
	return f
}

func numberOf(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// stringOf renders v for Format; absent and nil become "".
func stringOf(v any, ok bool) string {
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// accepted coerces v to a boolean for Acceptance.
func accepted(v any, ok bool) bool {
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if s == "on" || s == "yes" {
			return true
		}
		b, err := cast.ToBoolE(s)
		return err == nil && b
	}
	rv := reflect.ValueOf(v)
	if f, ok := numberOf(rv); ok {
		return f != 0 && !math.IsNaN(f)
	}
	if rv.Kind() == reflect.Bool {
		return rv.Bool()
	}
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

// EqualValues reports whether a and b are deeply equal, treating numbers of
// different Go types as equal when their values are.
func EqualValues(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	fa, okA := numberOf(reflect.ValueOf(a))
	fb, okB := numberOf(reflect.ValueOf(b))
	return okA && okB && fa == fb
}
