// Package changeset tracks proposed changes to a flat record, validates them
// with composable validators and accumulates structured errors without
// touching the original data.
//
// A Changeset holds:
//
// - Defaults: the record before any edit
// - Changes: proposed values that shadow the defaults
// - Modified: the fields that were the target of a change
// - Errors: ordered per-field error records (message, values, meta)
//
// Every mutator returns a new *Changeset; snapshots are never modified and may
// be read from several goroutines.
//
// Design policy:
// - Validation failures are data, read through IsValid/Errors/Err.
// - Configuration mistakes (unknown comparator, nil pattern, undefined tag)
// are *ConfigError values: returned by constructors such as ParseBound, or
// raised by panic when a validator is built from an unusable argument.
// - Declarative rule documents live in rules/, English rendering of error
// records in message/, and the CLI under cmd/changeset.
//
// Typical usage:
//
//	cs := changeset.New(map[string]any{"age": 0, "name": ""}).
//		AddChanges(params).
//		Filter("age", "name").
//		ValidateRequired("age", "name").
//		ValidateLength("age", changeset.Gt(18)).
//		ValidateFormat("name", nameRe)
//
//	if cs.IsInvalid() {
//		return cs.Err()
//	}
//	save(cs.ApplyChanges())
package changeset
