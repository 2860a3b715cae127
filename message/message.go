// Package message renders changeset error records as English phrases.
package message

import (
	"fmt"

	"github.com/reoring/changeset"
)

// Describer turns an error record into a human-readable phrase such as
// "can't be blank". The field name is not part of the phrase.
type Describer interface {
	Describe(fe changeset.FieldError) string
}

// DescriberFunc adapts a function to Describer.
type DescriberFunc func(fe changeset.FieldError) string

func (f DescriberFunc) Describe(fe changeset.FieldError) string { return f(fe) }

// english is the built-in Describer.
type english struct{}

func (english) Describe(fe changeset.FieldError) string {
	switch fe.Message {
	case changeset.MsgRequired:
		return "can't be blank"
	case changeset.MsgFormat:
		return "has invalid format"
	case changeset.MsgLength:
		return describeLength(fe.Values)
	case changeset.MsgAcceptance:
		return "must be accepted"
	case changeset.MsgInclusion:
		return "is invalid"
	case changeset.MsgExclusion:
		return "is reserved"
	case changeset.MsgTag:
		if len(fe.Values) == 2 {
			return fmt.Sprintf("failed the %v check", fe.Values[1])
		}
		return "is invalid"
	}
	return fe.Message
}

var lengthPhrases = map[changeset.Comparator]string{
	changeset.OpEq:  "must be %v",
	changeset.OpNeq: "must not be %v",
	changeset.OpGt:  "must be greater than %v",
	changeset.OpGte: "must be at least %v",
	changeset.OpLt:  "must be less than %v",
	changeset.OpLte: "must be at most %v",
}

func describeLength(values []any) string {
	if len(values) != 2 {
		return "has invalid length"
	}
	name, _ := values[0].(string)
	op, err := changeset.ParseComparator(name)
	if err != nil {
		return "has invalid length"
	}
	return fmt.Sprintf(lengthPhrases[op], values[1])
}

var current Describer = english{}

// SetDescriber replaces the Describer used by Describe, Messages and Full.
// nil restores the built-in English one. Call it during initialization.
func SetDescriber(d Describer) {
	if d == nil {
		current = english{}
		return
	}
	current = d
}

// Describe renders fe with the current Describer.
func Describe(fe changeset.FieldError) string { return current.Describe(fe) }

// Messages renders every record, keyed by field.
func Messages(errs changeset.Errors) map[string][]string {
	out := make(map[string][]string, errs.Len())
	errs.Each(func(field string, l []changeset.FieldError) bool {
		msgs := make([]string, len(l))
		for i, fe := range l {
			msgs[i] = Describe(fe)
		}
		out[field] = msgs
		return true
	})
	return out
}

// Full renders every record as "<field> <phrase>" in error order.
func Full(errs changeset.Errors) []string {
	out := make([]string, 0, errs.Count())
	errs.Each(func(field string, l []changeset.FieldError) bool {
		for _, fe := range l {
			out = append(out, field+" "+Describe(fe))
		}
		return true
	})
	return out
}
