package rules

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/reoring/changeset"
)

// Set is a compiled rule document.
type Set struct {
	filter     []string
	validators []changeset.Validator
}

// Compile builds the validator chain of doc. Unknown comparators, bad
// patterns and undefined tags are reported as *changeset.ConfigError.
func Compile(doc Document) (*Set, error) {
	vs, err := compileValidators(doc)
	if err != nil {
		return nil, err
	}
	return &Set{filter: append([]string(nil), doc.Filter...), validators: vs}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(doc Document) *Set {
	s, err := Compile(doc)
	if err != nil {
		panic(err)
	}
	return s
}

func compileValidators(doc Document) ([]changeset.Validator, error) {
	var vs []changeset.Validator
	if len(doc.Required) > 0 {
		vs = append(vs, changeset.Required(doc.Required...))
	}
	for _, r := range doc.Format {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, &changeset.ConfigError{Op: "Format", Name: r.Field, Err: errors.Join(changeset.ErrInvalidPattern, err)}
		}
		vs = append(vs, changeset.Format(r.Field, re))
	}
	for _, r := range doc.Length {
		b, err := changeset.ParseBound(r.Op, r.Value)
		if err != nil {
			return nil, err
		}
		vs = append(vs, changeset.Length(r.Field, b))
	}
	for _, f := range doc.Acceptance {
		vs = append(vs, changeset.Acceptance(f))
	}
	for _, r := range doc.Inclusion {
		vs = append(vs, changeset.Inclusion(r.Field, r.Values...))
	}
	for _, r := range doc.Exclusion {
		vs = append(vs, changeset.Exclusion(r.Field, r.Values...))
	}
	for _, r := range doc.Tag {
		if err := changeset.CheckTag(r.Tag); err != nil {
			return nil, err
		}
		vs = append(vs, changeset.Tag(r.Field, r.Tag))
	}
	for i, w := range doc.When {
		op, err := changeset.ParseComparator(w.Op)
		if err != nil {
			return nil, err
		}
		if len(w.Then.Filter) > 0 {
			return nil, fmt.Errorf("rules: when[%d]: filter is only allowed at the top level", i)
		}
		then, err := compileValidators(w.Then)
		if err != nil {
			return nil, fmt.Errorf("rules: when[%d]: %w", i, err)
		}
		vs = append(vs, When(w.Field, op, w.Value, then...))
	}
	return vs, nil
}

// Filter returns the fields the set restricts a changeset to, or nil.
func (s *Set) Filter() []string { return append([]string(nil), s.filter...) }

// Validators returns the compiled chain without the filter step.
func (s *Set) Validators() []changeset.Validator {
	return append([]changeset.Validator(nil), s.validators...)
}

// Validator returns the chain as one validator. It never filters, so errors
// recorded before it are kept; use Apply to scope a changeset to Filter.
func (s *Set) Validator() changeset.Validator { return And(s.Validators()...) }

// Apply filters cs when the set declares a filter, then runs the chain. Filter
// drops changes and errors of fields outside it, so call Apply first in a
// pipeline.
func (s *Set) Apply(cs *changeset.Changeset) *changeset.Changeset {
	if len(s.filter) > 0 {
		cs = cs.Filter(s.filter...)
	}
	return cs.Validate(s.validators...)
}

// Load parses, merges and compiles rule documents in order.
func Load(data ...[]byte) (*Set, error) {
	docs := make([]Document, 0, len(data))
	for i, d := range data {
		doc, err := Parse(d)
		if err != nil {
			return nil, fmt.Errorf("rules: document %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	doc, err := Merge(docs...)
	if err != nil {
		return nil, err
	}
	return Compile(doc)
}
