package changeset

import (
	"errors"
	"log/slog"
)

// Policy controls whether writes to fields outside the allow-list are applied.
type Policy int

const (
	// Permissive applies every change and error regardless of the allow-list.
	// Scoping is done with Filter.
	Permissive Policy = iota
	// Strict turns AddChange and AddError on non-allowed fields into no-ops.
	// The allow-list is the union of WithAllowed fields and default fields.
	Strict
)

func (p Policy) String() string {
	switch p {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// config holds construction options of a Changeset.
type config struct {
	policy    Policy
	policySet bool
	allowed   []string
	logger    *slog.Logger
}

func (c *config) validate() error {
	if c.policy != Permissive && c.policy != Strict {
		return errors.New("changeset: unknown policy")
	}
	return nil
}

// Option configures New.
type Option func(*config)

// WithAllowed declares the fields that may be changed. It implies Strict unless
// WithPolicy sets a policy explicitly.
//
// Example:
//
//	cs := changeset.New(defaults, changeset.WithAllowed("email", "nickname"))
func WithAllowed(fields ...string) Option {
	return func(c *config) {
		c.allowed = append(c.allowed, fields...)
	}
}

// WithPolicy sets the allow-list enforcement policy.
func WithPolicy(p Policy) Option {
	return func(c *config) {
		c.policy = p
		c.policySet = true
	}
}

// WithLogger sets the logger used for debug records about dropped writes.
// A nil logger restores the default, which discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	if !c.policySet && len(c.allowed) > 0 {
		c.policy = Strict
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}
