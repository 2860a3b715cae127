package changeset

import (
	"reflect"
)

// FieldToken names a top-level field of the record type T. Obtain it via
// FieldOf so that renaming the struct field breaks the build instead of the
// validator chain.
type FieldToken[T any] struct {
	key string
}

// Key returns the field identifier used by the changeset.
func (t FieldToken[T]) Key() string { return t.key }

func (t FieldToken[T]) String() string { return t.key }

// FieldNameOf returns the field identifier of the top-level field of S chosen
// by selector.
//
//	FieldNameOf[Signup](func(s *Signup) *int { return &s.Age }) // "age"
func FieldNameOf[S any, F any](selector func(*S) *F) string {
	if selector == nil {
		panic("changeset.FieldNameOf: selector must not be nil")
	}
	var zero S
	fp := reflect.ValueOf(selector(&zero)).Pointer()
	rv := reflect.ValueOf(&zero).Elem()
	if rv.Kind() != reflect.Struct {
		panic("changeset.FieldNameOf: record type must be a struct")
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := rv.Field(i)
		if !fv.CanAddr() || fv.Addr().Pointer() != fp {
			continue
		}
		if !sf.IsExported() {
			panic("changeset.FieldNameOf: selected field is not exported")
		}
		name := ResolveStructKey(sf)
		if name == "" || name == "-" {
			panic("changeset.FieldNameOf: selected field is disabled")
		}
		return name
	}
	panic("changeset.FieldNameOf: selector must return the address of a top-level field")
}

// FieldOf builds a FieldToken for a top-level field of T.
func FieldOf[T any, F any](selector func(*T) *F) FieldToken[T] {
	return FieldToken[T]{key: FieldNameOf(selector)}
}

// GetAs returns the effective value of field when it holds an F.
func GetAs[F any](cs *Changeset, field string) (F, bool) {
	var zero F
	v, ok := cs.Field(field)
	if !ok {
		return zero, false
	}
	f, ok := v.(F)
	if !ok {
		return zero, false
	}
	return f, true
}
