package changeset

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/reoring/changeset/internal/ordered"
)

// Changeset is an immutable snapshot of defaults, proposed changes, error
// records and modification flags for one validation attempt. Every mutator
// returns a new *Changeset and leaves the receiver untouched, so a snapshot may
// be shared between goroutines.
//
// The effective value of a field is its change when present, else its
// default. A change explicitly set to nil is present and shadows the default.
type Changeset struct {
	defaults *ordered.Map[string, any]
	changes  *ordered.Map[string, any]
	modified *ordered.Map[string, bool]
	errors   *ordered.Map[string, []FieldError]
	allowed  *ordered.Map[string, bool]
	policy   Policy
	logger   *slog.Logger
	valid    bool
}

// New builds a changeset over defaults. Default field names are always
// allowed; WithAllowed adds more.
func New(defaults map[string]any, opts ...Option) *Changeset {
	cfg := newConfig(opts)
	if err := cfg.validate(); err != nil {
		panic("changeset.New: " + err.Error())
	}
	cs := &Changeset{
		defaults: &ordered.Map[string, any]{},
		changes:  &ordered.Map[string, any]{},
		modified: &ordered.Map[string, bool]{},
		errors:   &ordered.Map[string, []FieldError]{},
		allowed:  &ordered.Map[string, bool]{},
		policy:   cfg.policy,
		logger:   cfg.logger,
		valid:    true,
	}
	for _, k := range sortedKeys(defaults) {
		cs.defaults.Set(k, defaults[k])
		cs.allowed.Set(k, true)
	}
	for _, f := range cfg.allowed {
		cs.allowed.Set(f, true)
	}
	return cs
}

func (cs *Changeset) clone() *Changeset {
	n := *cs
	return &n
}

func (cs *Changeset) permits(op, field string) bool {
	if cs.policy != Strict || cs.allowed.Has(field) {
		return true
	}
	cs.logger.Debug("changeset: dropped write to non-allowed field", "op", op, "field", field)
	return false
}

// AddChange proposes value for field and marks the field modified.
func (cs *Changeset) AddChange(field string, value any) *Changeset {
	if !cs.permits("AddChange", field) {
		return cs
	}
	n := cs.clone()
	n.changes = cs.changes.Clone()
	n.changes.Set(field, value)
	n.modified = cs.modified.Clone()
	n.modified.Set(field, true)
	return n
}

// AddChanges applies AddChange for each entry in sorted key order. Entries are
// independent; a dropped entry does not affect the others.
func (cs *Changeset) AddChanges(changes map[string]any) *Changeset {
	n := cs
	for _, k := range sortedKeys(changes) {
		n = n.AddChange(k, changes[k])
	}
	return n
}

// AddDefault sets the base value of field. Changes, errors and modification
// flags are not touched.
func (cs *Changeset) AddDefault(field string, value any) *Changeset {
	n := cs.clone()
	n.defaults = cs.defaults.Clone()
	n.defaults.Set(field, value)
	if !cs.allowed.Has(field) {
		n.allowed = cs.allowed.Clone()
		n.allowed.Set(field, true)
	}
	return n
}

// AddDefaults applies AddDefault for each entry in sorted key order.
func (cs *Changeset) AddDefaults(defaults map[string]any) *Changeset {
	n := cs
	for _, k := range sortedKeys(defaults) {
		n = n.AddDefault(k, defaults[k])
	}
	return n
}

// AddError appends an error record to field and marks the changeset invalid.
// The field does not need a change or default.
func (cs *Changeset) AddError(field, message string, values ...any) *Changeset {
	if values == nil {
		values = []any{}
	}
	return cs.AddFieldError(field, FieldError{Message: message, Values: values})
}

// AddFieldError is AddError for a prepared record, typically one carrying Meta.
func (cs *Changeset) AddFieldError(field string, fe FieldError) *Changeset {
	if !cs.permits("AddError", field) {
		return cs
	}
	if fe.Values == nil {
		fe.Values = []any{}
	}
	n := cs.clone()
	n.errors = cs.errors.Clone()
	prev, _ := cs.errors.Get(field)
	n.errors.Set(field, append(slices.Clip(prev), fe))
	n.valid = false
	return n
}

// ClearErrors drops every error record; the changeset becomes valid.
func (cs *Changeset) ClearErrors() *Changeset {
	n := cs.clone()
	n.errors = &ordered.Map[string, []FieldError]{}
	n.valid = true
	return n
}

// ClearChanges empties changes and modification flags.
func (cs *Changeset) ClearChanges() *Changeset {
	n := cs.clone()
	n.changes = &ordered.Map[string, any]{}
	n.modified = &ordered.Map[string, bool]{}
	return n
}

// ResetChanges replaces changes with a copy of the defaults and empties the
// modification flags. Use it where a cleared changeset must still report every
// default field through HasChange.
func (cs *Changeset) ResetChanges() *Changeset {
	n := cs.clone()
	n.changes = cs.defaults.Clone()
	n.modified = &ordered.Map[string, bool]{}
	return n
}

// ClearDefaults empties the defaults. It is the only operation doing so.
func (cs *Changeset) ClearDefaults() *Changeset {
	n := cs.clone()
	n.defaults = &ordered.Map[string, any]{}
	return n
}

// Clear is ClearErrors followed by ClearChanges. Defaults are kept.
func (cs *Changeset) Clear() *Changeset {
	return cs.ClearErrors().ClearChanges()
}

// Filter restricts changes, errors and modification flags to fields, in the
// given order. Each listed field is marked modified and keeps its previous
// change and error list verbatim; other fields are dropped. Defaults are not
// affected. Under Strict, non-allowed fields are skipped.
func (cs *Changeset) Filter(fields ...string) *Changeset {
	n := cs.clone()
	n.changes = &ordered.Map[string, any]{}
	n.modified = &ordered.Map[string, bool]{}
	n.errors = &ordered.Map[string, []FieldError]{}
	for _, f := range fields {
		if n.modified.Has(f) || !cs.permits("Filter", f) {
			continue
		}
		if v, ok := cs.changes.Get(f); ok {
			n.changes.Set(f, v)
		}
		if l, ok := cs.errors.Get(f); ok && len(l) > 0 {
			n.errors.Set(f, l)
		}
		n.modified.Set(f, true)
	}
	n.valid = n.errors.Len() == 0
	return n
}

// ApplyChanges returns the defaults overlaid with the changes.
func (cs *Changeset) ApplyChanges() map[string]any {
	out := cs.defaults.ToMap()
	cs.changes.Each(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

// IsValid reports whether no error has been recorded.
func (cs *Changeset) IsValid() bool { return cs.valid }

// IsInvalid is the negation of IsValid.
func (cs *Changeset) IsInvalid() bool { return !cs.valid }

// Err returns the errors as an error, or nil when valid.
func (cs *Changeset) Err() error {
	if cs.valid {
		return nil
	}
	return cs.Errors()
}

// HasChange reports whether field has a proposed value.
func (cs *Changeset) HasChange(field string) bool { return cs.changes.Has(field) }

// Change returns the proposed value of field.
func (cs *Changeset) Change(field string) (any, bool) { return cs.changes.Get(field) }

// ChangeOr returns the proposed value of field or def.
func (cs *Changeset) ChangeOr(field string, def any) any {
	if v, ok := cs.changes.Get(field); ok {
		return v
	}
	return def
}

// HasDefault reports whether field has a default.
func (cs *Changeset) HasDefault(field string) bool { return cs.defaults.Has(field) }

// Default returns the default of field.
func (cs *Changeset) Default(field string) (any, bool) { return cs.defaults.Get(field) }

// DefaultOr returns the default of field or def.
func (cs *Changeset) DefaultOr(field string, def any) any {
	if v, ok := cs.defaults.Get(field); ok {
		return v
	}
	return def
}

// Field returns the effective value of field.
func (cs *Changeset) Field(field string) (any, bool) {
	if v, ok := cs.changes.Get(field); ok {
		return v, true
	}
	return cs.defaults.Get(field)
}

// FieldOr returns the effective value of field or def.
func (cs *Changeset) FieldOr(field string, def any) any {
	if v, ok := cs.Field(field); ok {
		return v
	}
	return def
}

// IsModified reports whether field was the target of a change or kept by Filter.
func (cs *Changeset) IsModified(field string) bool {
	v, _ := cs.modified.Get(field)
	return v
}

// Modified returns the modified fields in the order they were first touched.
func (cs *Changeset) Modified() []string { return cs.modified.Keys() }

// Changes returns a copy of the proposed values.
func (cs *Changeset) Changes() map[string]any { return cs.changes.ToMap() }

// ChangedFields returns the fields with a proposed value in insertion order.
func (cs *Changeset) ChangedFields() []string { return cs.changes.Keys() }

// Defaults returns a copy of the defaults.
func (cs *Changeset) Defaults() map[string]any { return cs.defaults.ToMap() }

// Errors returns the recorded errors.
func (cs *Changeset) Errors() Errors { return Errors{m: cs.errors} }

// FieldErrors returns a copy of the error list of field.
func (cs *Changeset) FieldErrors(field string) []FieldError { return cs.Errors().Get(field) }

// Policy returns the allow-list enforcement policy.
func (cs *Changeset) Policy() Policy { return cs.policy }

// Allowed returns the allow-list: default fields in sorted order followed by
// fields declared with WithAllowed or added through AddDefault.
func (cs *Changeset) Allowed() []string { return cs.allowed.Keys() }

// IsAllowed reports whether writes to field are applied.
func (cs *Changeset) IsAllowed(field string) bool {
	return cs.policy != Strict || cs.allowed.Has(field)
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
