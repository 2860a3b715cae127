package rules_test

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/changeset"
	"github.com/reoring/changeset/rules"
)

const signupYAML = `
version: 1
filter: [age, name, agreedToTerms, role, email]
required: [age, name, agreedToTerms]
format:
  - field: name
    pattern: '[A-Za-z0-9_-]+'
length:
  - {field: age, op: gt, value: 18}
acceptance: [agreedToTerms]
inclusion:
  - field: role
    values: [admin, user]
tag:
  - {field: email, tag: "omitempty,email"}
when:
  - field: role
    op: eq
    value: admin
    then:
      required: [email]
`

func TestParse(t *testing.T) {
	doc, err := rules.Parse([]byte(signupYAML))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, []string{"age", "name", "agreedToTerms", "role", "email"}, doc.Filter)
	assert.Equal(t, []rules.LengthRule{{Field: "age", Op: "gt", Value: 18}}, doc.Length)
	assert.Equal(t, []any{"admin", "user"}, doc.Inclusion[0].Values)
	require.Len(t, doc.When, 1)
	assert.Equal(t, []string{"email"}, doc.When[0].Then.Required)
}

func TestParse_JSON(t *testing.T) {
	doc, err := rules.Parse([]byte(`{"required": ["email"], "tag": [{"field": "email", "tag": "email"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, doc.Required)
	assert.Equal(t, "email", doc.Tag[0].Tag)
}

func TestParse_Empty(t *testing.T) {
	doc, err := rules.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, rules.Document{}, doc)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		location string
	}{
		{"unknown section", "requried: [a]", "/"},
		{"wrong version", "version: 2", "/version"},
		{"missing pattern", "format:\n  - field: name", "/format/0"},
		{"bad value type", "length:\n  - {field: age, op: gt, value: [1]}", "/length/0/value"},
		{"empty inclusion", "inclusion:\n  - {field: role, values: []}", "/inclusion/0/values"},
		{"nested document", "when:\n  - {field: a, op: eq, value: 1, then: {nope: 1}}", "/when/0/then"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, rules.ErrInvalidDocument)

			var derr *rules.DocumentError
			require.True(t, errors.As(err, &derr))
			require.NotEmpty(t, derr.Violations)
			locations := make([]string, 0, len(derr.Violations))
			for _, v := range derr.Violations {
				assert.NotEmpty(t, v.Message)
				locations = append(locations, v.Location)
			}
			assert.Contains(t, locations, tt.location)
		})
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := rules.Parse([]byte("required: [a"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, rules.ErrInvalidDocument)
}

func TestSchema(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal(rules.Schema(), &v))
	assert.Equal(t, "object", v["type"])
}

func TestMerge(t *testing.T) {
	base := rules.Document{
		Version:  1,
		Filter:   []string{"a", "b"},
		Required: []string{"a"},
		Length:   []rules.LengthRule{{Field: "a", Op: "gt", Value: 1}},
	}
	overlay := rules.Document{
		Filter:   []string{"b", "c"},
		Required: []string{"a", "c"},
		Tag:      []rules.TagRule{{Field: "c", Tag: "email"}},
	}

	got, err := rules.Merge(base, overlay)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, []string{"a", "b", "c"}, got.Filter)
	assert.Equal(t, []string{"a", "c"}, got.Required)
	assert.Equal(t, base.Length, got.Length)
	assert.Equal(t, overlay.Tag, got.Tag)

	assert.Equal(t, []string{"a", "b"}, base.Filter, "inputs are not modified")
}

func TestCompile_Apply(t *testing.T) {
	doc, err := rules.Parse([]byte(signupYAML))
	require.NoError(t, err)
	set, err := rules.Compile(doc)
	require.NoError(t, err)

	defaults := map[string]any{"age": 0, "name": "", "agreedToTerms": false}

	t.Run("valid", func(t *testing.T) {
		cs := set.Apply(changeset.New(defaults).AddChanges(map[string]any{
			"age": 20, "name": "Nathan", "agreedToTerms": true, "role": "user",
		}))
		assert.True(t, cs.IsValid(), cs.Errors().Error())
	})

	t.Run("invalid", func(t *testing.T) {
		cs := set.Apply(changeset.New(defaults).AddChanges(map[string]any{
			"age": 15, "name": "%#%$%@", "agreedToTerms": false, "role": "admin", "admin": true,
		}))
		assert.True(t, cs.IsInvalid())
		assert.Equal(t, []changeset.FieldError{{Message: changeset.MsgLength, Values: []any{"gt", 18}}}, cs.FieldErrors("age"))
		assert.Equal(t, changeset.MsgFormat, cs.FieldErrors("name")[0].Message)
		assert.Equal(t, changeset.MsgAcceptance, cs.FieldErrors("agreedToTerms")[0].Message)
		assert.Equal(t, changeset.MsgRequired, cs.FieldErrors("email")[0].Message)
		assert.False(t, cs.HasChange("admin"), "filtered out")
	})

	t.Run("apply filters before validating", func(t *testing.T) {
		cs := set.Apply(changeset.New(defaults))
		assert.Equal(t, []string{"age", "name", "agreedToTerms", "role", "email"}, cs.Modified())
		assert.Len(t, set.Validators(), 7)
		assert.Equal(t, doc.Filter, set.Filter())
	})

	t.Run("as validator keeps earlier errors", func(t *testing.T) {
		scoped := rules.MustCompile(rules.Document{Filter: []string{"age"}})
		cs := changeset.New(map[string]any{"age": 20}).AddError("name", "custom")

		out := cs.Validate(scoped.Validator())
		assert.True(t, out.IsInvalid())
		assert.Equal(t, cs.FieldErrors("name"), out.FieldErrors("name"))
		assert.Empty(t, out.Modified())

		out = cs.Validate(rules.And(set.Validator()), rules.When("age", changeset.OpGt, 18, set.Validator()))
		assert.True(t, out.IsInvalid())
		assert.Equal(t, "custom", out.FieldErrors("name")[0].Message)
	})
}

func TestCompile_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    rules.Document
		target error
	}{
		{"unknown comparator", rules.Document{Length: []rules.LengthRule{{Field: "a", Op: "foo", Value: 1}}}, changeset.ErrUnknownComparator},
		{"non numeric threshold", rules.Document{Length: []rules.LengthRule{{Field: "a", Op: "gt", Value: "x"}}}, changeset.ErrInvalidThreshold},
		{"bad pattern", rules.Document{Format: []rules.FormatRule{{Field: "a", Pattern: "("}}}, changeset.ErrInvalidPattern},
		{"undefined tag", rules.Document{Tag: []rules.TagRule{{Field: "a", Tag: "no_such_tag"}}}, changeset.ErrInvalidTag},
		{"nested", rules.Document{When: []rules.WhenRule{{Field: "a", Op: "eq", Value: 1, Then: rules.Document{
			Length: []rules.LengthRule{{Field: "b", Op: "between", Value: 1}},
		}}}}, changeset.ErrUnknownComparator},
		{"when comparator", rules.Document{When: []rules.WhenRule{{Field: "a", Op: "like", Value: 1}}}, changeset.ErrUnknownComparator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := rules.Compile(tt.doc)
			assert.Nil(t, set)
			assert.ErrorIs(t, err, tt.target)
			var ce *changeset.ConfigError
			assert.ErrorAs(t, err, &ce)
		})
	}

	t.Run("nested filter", func(t *testing.T) {
		_, err := rules.Compile(rules.Document{When: []rules.WhenRule{{Field: "a", Op: "eq", Value: 1, Then: rules.Document{Filter: []string{"a"}}}}})
		assert.Error(t, err)
	})

	assert.Panics(t, func() {
		rules.MustCompile(rules.Document{Length: []rules.LengthRule{{Field: "a", Op: "foo", Value: 1}}})
	})
}

func TestLoad(t *testing.T) {
	set, err := rules.Load([]byte("required: [a]"), []byte("required: [b]\nfilter: [a, b]"))
	require.NoError(t, err)

	cs := set.Apply(changeset.New(nil).AddChange("c", 1))
	assert.Equal(t, []string{"a", "b"}, cs.Errors().Fields())
	assert.False(t, cs.HasChange("c"))

	_, err = rules.Load([]byte("version: 3"))
	assert.ErrorIs(t, err, rules.ErrInvalidDocument)
}
