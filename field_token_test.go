package changeset_test

import (
	"reflect"
	"testing"

	"github.com/reoring/changeset"
)

type account struct {
	Email    string `json:"email"`
	Nickname string `changeset:"name=nick" json:"nickname"`
	Age      int
	Secret   string   `json:"-"`
	Tags     []string `json:",omitempty"`
	internal int
}

// panicValue runs fn and returns what it panicked with, or nil.
func panicValue(fn func()) (v any) {
	defer func() { v = recover() }()
	fn()
	return nil
}

func TestFieldNameOf(t *testing.T) {
	cases := map[string]string{
		"email": changeset.FieldNameOf(func(a *account) *string { return &a.Email }),
		"nick":  changeset.FieldNameOf(func(a *account) *string { return &a.Nickname }),
		"Age":   changeset.FieldNameOf(func(a *account) *int { return &a.Age }),
		"Tags":  changeset.FieldNameOf(func(a *account) *[]string { return &a.Tags }),
	}
	for want, got := range cases {
		if got != want {
			t.Errorf("FieldNameOf: want %q, got %q", want, got)
		}
	}

	if v := panicValue(func() { changeset.FieldNameOf(func(a *account) *string { return &a.Secret }) }); v != "changeset.FieldNameOf: selected field is disabled" {
		t.Fatalf("disabled field: got panic %v", v)
	}
	if v := panicValue(func() { changeset.FieldNameOf(func(a *account) *int { return &a.internal }) }); v != "changeset.FieldNameOf: selected field is not exported" {
		t.Fatalf("unexported field: got panic %v", v)
	}
	if v := panicValue(func() { changeset.FieldNameOf(func(a *account) *int { v := 1; return &v }) }); v == nil {
		t.Fatalf("expected panic for a pointer outside the struct")
	}
}

func TestFieldOf_DrivesValidators(t *testing.T) {
	email := changeset.FieldOf(func(a *account) *string { return &a.Email })

	cs := changeset.New(nil).
		AddChange(email.Key(), "").
		ValidateRequired(email.Key())

	if email.String() != "email" {
		t.Fatalf("key: got %q", email.String())
	}
	if !cs.Errors().Has("email") {
		t.Fatalf("expected required error on email, got %v", cs.Errors())
	}
}

func TestDefaultsOf(t *testing.T) {
	defaults, err := changeset.DefaultsOf(&account{Email: "a@b.co", Nickname: "n", Age: 3, Secret: "s"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := map[string]any{
		"email": "a@b.co",
		"nick":  "n",
		"Age":   3,
		"Tags":  []string(nil),
	}
	if !reflect.DeepEqual(defaults, want) {
		t.Fatalf("defaults: want %v, got %v", want, defaults)
	}

	if _, err := changeset.DefaultsOf((*account)(nil)); err == nil {
		t.Fatalf("expected error for a nil pointer")
	}
	if _, err := changeset.DefaultsOf(42); err == nil {
		t.Fatalf("expected error for a non-struct")
	}
}
