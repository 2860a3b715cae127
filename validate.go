package changeset

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator inspects the effective values of a changeset and returns it with
// any new error records appended. A validator never removes errors.
type Validator func(*Changeset) *Changeset

// Validate runs validators in order. Nil validators are skipped.
func (cs *Changeset) Validate(validators ...Validator) *Changeset {
	n := cs
	for _, v := range validators {
		if v == nil {
			continue
		}
		n = v(n)
		if n == nil {
			panic("changeset.Validate: validator returned a nil changeset")
		}
	}
	return n
}

// Required fails each field whose effective value is absent, nil or "".
func Required(fields ...string) Validator {
	fields = append([]string(nil), fields...)
	return func(cs *Changeset) *Changeset {
		for _, f := range fields {
			if missing(cs.Field(f)) {
				cs = cs.AddError(f, MsgRequired)
			}
		}
		return cs
	}
}

// Format fails field unless the string form of its effective value matches
// pattern. Absent values are tested as "".
func Format(field string, pattern *regexp.Regexp) Validator {
	if pattern == nil {
		panic(&ConfigError{Op: "Format", Name: field, Err: ErrInvalidPattern})
	}
	return func(cs *Changeset) *Changeset {
		if !pattern.MatchString(stringOf(cs.Field(field))) {
			return cs.AddError(field, MsgFormat, pattern)
		}
		return cs
	}
}

// Length checks the length of field against each bound and records one error
// per failing bound, in bound order. A Bound not built by the constructors
// or ParseBound panics with *ConfigError before anything is recorded.
func Length(field string, bounds ...Bound) Validator {
	bounds = append([]Bound(nil), bounds...)
	for _, b := range bounds {
		if !b.op.Valid() {
			panic(&ConfigError{Op: "Length", Name: b.name, Err: ErrUnknownComparator})
		}
	}
	return func(cs *Changeset) *Changeset {
		n := lengthOf(cs.Field(field))
		for _, b := range bounds {
			if !b.Check(n) {
				cs = cs.AddError(field, MsgLength, b.name, b.threshold)
			}
		}
		return cs
	}
}

// Acceptance fails field unless its effective value coerces to true. Accepted
// values are true, "on", "yes", strings strconv.ParseBool reads as true ("1",
// "t", "true") and non-zero numbers. Any other string ("abc", "no", "0"),
// collections, NaN and nil fail.
func Acceptance(field string) Validator {
	return func(cs *Changeset) *Changeset {
		if !accepted(cs.Field(field)) {
			return cs.AddError(field, MsgAcceptance)
		}
		return cs
	}
}

// Inclusion fails field when its effective value is present and not one of
// allowed.
func Inclusion(field string, allowed ...any) Validator {
	allowed = append([]any(nil), allowed...)
	return func(cs *Changeset) *Changeset {
		v, ok := cs.Field(field)
		if !ok || v == nil {
			return cs
		}
		for _, a := range allowed {
			if EqualValues(v, a) {
				return cs
			}
		}
		return cs.AddError(field, MsgInclusion, allowed)
	}
}

// Exclusion fails field when its effective value is one of reserved.
func Exclusion(field string, reserved ...any) Validator {
	reserved = append([]any(nil), reserved...)
	return func(cs *Changeset) *Changeset {
		v, ok := cs.Field(field)
		if !ok {
			return cs
		}
		for _, r := range reserved {
			if EqualValues(v, r) {
				return cs.AddError(field, MsgExclusion, reserved)
			}
		}
		return cs
	}
}

var tagValidator = validator.New(validator.WithRequiredStructEnabled())

// RegisterTag adds a custom go-playground validation tag usable with Tag.
// Register tags during initialization, before validators run.
func RegisterTag(name string, fn validator.Func) error {
	if err := tagValidator.RegisterValidation(name, fn); err != nil {
		return &ConfigError{Op: "RegisterTag", Name: name, Err: errors.Join(ErrInvalidTag, err)}
	}
	return nil
}

// Tag validates the effective value of field with a go-playground tag
// expression such as "email" or "omitempty,min=3". Absent values are nil, so
// prefix the tag with "omitempty" to let them pass. Failures record the tag
// and the failing sub-tag. Undefined tags panic with *ConfigError.
func Tag(field, tag string) Validator {
	if err := CheckTag(tag); err != nil {
		panic(err)
	}
	return func(cs *Changeset) *Changeset {
		v, _ := cs.Field(field)
		err := tagValidator.Var(v, tag)
		if err == nil {
			return cs
		}
		failed := tag
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			failed = verrs[0].Tag()
		}
		return cs.AddError(field, MsgTag, tag, failed)
	}
}

// CheckTag reports whether tag is a usable expression for Tag. Undefined tags
// yield a *ConfigError wrapping ErrInvalidTag.
func CheckTag(tag string) (err error) {
	if strings.TrimSpace(tag) == "" {
		return &ConfigError{Op: "Tag", Name: tag, Err: ErrInvalidTag}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &ConfigError{Op: "Tag", Name: tag, Err: fmt.Errorf("%w: %v", ErrInvalidTag, r)}
		}
	}()
	_ = tagValidator.Var("", tag)
	return nil
}

// ValidateRequired runs Required.
func (cs *Changeset) ValidateRequired(fields ...string) *Changeset {
	return cs.Validate(Required(fields...))
}

// ValidateFormat runs Format.
func (cs *Changeset) ValidateFormat(field string, pattern *regexp.Regexp) *Changeset {
	return cs.Validate(Format(field, pattern))
}

// ValidateLength runs Length.
func (cs *Changeset) ValidateLength(field string, bounds ...Bound) *Changeset {
	return cs.Validate(Length(field, bounds...))
}

// ValidateAcceptance runs Acceptance.
func (cs *Changeset) ValidateAcceptance(field string) *Changeset {
	return cs.Validate(Acceptance(field))
}

// ValidateInclusion runs Inclusion.
func (cs *Changeset) ValidateInclusion(field string, allowed ...any) *Changeset {
	return cs.Validate(Inclusion(field, allowed...))
}

// ValidateExclusion runs Exclusion.
func (cs *Changeset) ValidateExclusion(field string, reserved ...any) *Changeset {
	return cs.Validate(Exclusion(field, reserved...))
}

// ValidateTag runs Tag.
func (cs *Changeset) ValidateTag(field, tag string) *Changeset {
	return cs.Validate(Tag(field, tag))
}
