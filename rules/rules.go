package rules

import (
	"errors"

	"github.com/spf13/cast"

	"github.com/reoring/changeset"
)

// Condition is a predicate over the effective values of a changeset.
type Condition struct {
	field string
	op    changeset.Comparator
	want  any
	all   []Condition // composite AND
	any   []Condition // composite OR
}

// If builds a condition comparing the effective value of field with want.
// OpEq and OpNeq compare with changeset.EqualValues; the ordering
// comparators coerce both sides to numbers and fail when either is not one.
// An absent field never satisfies a condition.
func If(field string, op changeset.Comparator, want any) Condition {
	if !op.Valid() {
		panic(&changeset.ConfigError{Op: "If", Name: op.String(), Err: changeset.ErrUnknownComparator})
	}
	return Condition{field: field, op: op, want: want}
}

// IfAll holds when every condition holds.
func IfAll(conds ...Condition) Condition { return Condition{all: conds} }

// IfAny holds when at least one condition holds.
func IfAny(conds ...Condition) Condition { return Condition{any: conds} }

// And combines the receiver with others using logical AND.
func (c Condition) And(others ...Condition) Condition {
	return IfAll(append([]Condition{c}, others...)...)
}

// Or combines the receiver with others using logical OR.
func (c Condition) Or(others ...Condition) Condition {
	return IfAny(append([]Condition{c}, others...)...)
}

// Holds evaluates the condition against cs.
func (c Condition) Holds(cs *changeset.Changeset) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.Holds(cs) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.Holds(cs) {
				return true
			}
		}
		return false
	}
	cur, ok := cs.Field(c.field)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// Then returns a validator running validators only when the condition holds.
func (c Condition) Then(validators ...changeset.Validator) changeset.Validator {
	return func(cs *changeset.Changeset) *changeset.Changeset {
		if !c.Holds(cs) {
			return cs
		}
		return cs.Validate(validators...)
	}
}

// When is If(field, op, want).Then(then...).
func When(field string, op changeset.Comparator, want any, then ...changeset.Validator) changeset.Validator {
	return If(field, op, want).Then(then...)
}

// And runs every validator in order.
func And(validators ...changeset.Validator) changeset.Validator {
	return func(cs *changeset.Changeset) *changeset.Changeset {
		return cs.Validate(validators...)
	}
}

// Or succeeds with the first validator that records no new error. When every
// branch fails, the branch recording the fewest errors wins.
func Or(validators ...changeset.Validator) changeset.Validator {
	return func(cs *changeset.Changeset) *changeset.Changeset {
		base := cs.Errors().Count()
		var best *changeset.Changeset
		bestN := 0
		for _, v := range validators {
			if v == nil {
				continue
			}
			out := cs.Validate(v)
			n := out.Errors().Count() - base
			if n == 0 {
				return out
			}
			if best == nil || n < bestN {
				best, bestN = out, n
			}
		}
		if best == nil {
			return cs
		}
		return best
	}
}

func compare(cur any, op changeset.Comparator, want any) bool {
	switch op {
	case changeset.OpEq:
		return changeset.EqualValues(cur, want)
	case changeset.OpNeq:
		return !changeset.EqualValues(cur, want)
	}
	a, err := toNumber(cur)
	if err != nil {
		return false
	}
	b, err := toNumber(want)
	if err != nil {
		return false
	}
	return op.Compare(a, b)
}

var errNotNumber = errors.New("rules: not a number")

// toNumber accepts numbers and numeric strings; nil and booleans are rejected.
func toNumber(v any) (float64, error) {
	switch v.(type) {
	case nil, bool:
		return 0, errNotNumber
	}
	return cast.ToFloat64E(v)
}
