package rpc

import (
	"maps"

	"github.com/dmitrymomot/callgate/pkg/validator"
)

// Policy is the access declaration of one call.
type Policy struct {
	// Authed requires session data with authed == true.
	Authed bool
	// Session requires a session to be attached to the call.
	Session bool
	// Access names the user access flag required when Authed is set.
	// The "all" flag grants every access.
	Access string
	// Schema validates arguments by position.
	Schema []*validator.Arg
	// Custom values are passed to the custom access check of the same key
	// when truthy.
	Custom map[string]any

	v        []*validator.Arg
	validate []*validator.Arg
}

// DefaultPolicy requires a signed-in session.
func DefaultPolicy() Policy {
	return Policy{Authed: true, Session: true}
}

// Option adjusts the policy of a registered call.
type Option func(*Policy)

// Public lets anonymous sessions through.
func Public() Option {
	return func(p *Policy) {
		p.Authed = false
	}
}

// Authed sets the signed-in requirement.
func Authed(required bool) Option {
	return func(p *Policy) {
		p.Authed = required
	}
}

// RequireSession sets the session requirement.
func RequireSession(required bool) Option {
	return func(p *Policy) {
		p.Session = required
	}
}

// Anonymous requires neither a session nor a sign-in.
func Anonymous() Option {
	return func(p *Policy) {
		p.Authed = false
		p.Session = false
	}
}

// Access requires user.access[name] to be true.
func Access(name string) Option {
	return func(p *Policy) {
		p.Access = name
	}
}

// Schema validates positional arguments against args.
func Schema(args ...*validator.Arg) Option {
	return func(p *Policy) {
		p.Schema = args
	}
}

// V is the short spelling of Schema; Schema wins when both are given.
func V(args ...*validator.Arg) Option {
	return func(p *Policy) {
		p.v = args
	}
}

// Validate is the long spelling of Schema; Schema and V win over it.
func Validate(args ...*validator.Arg) Option {
	return func(p *Policy) {
		p.validate = args
	}
}

// Custom sets the value handed to a custom access check.
func Custom(key string, value any) Option {
	return func(p *Policy) {
		if p.Custom == nil {
			p.Custom = make(map[string]any)
		}
		p.Custom[key] = value
	}
}

// WithPolicy replaces the whole policy.
func WithPolicy(policy Policy) Option {
	return func(p *Policy) {
		*p = policy
	}
}

func buildPolicy(opts []Option) Policy {
	p := DefaultPolicy()
	for _, opt := range opts {
		opt(&p)
	}

	if len(p.Schema) == 0 {
		if len(p.v) > 0 {
			p.Schema = p.v
		} else {
			p.Schema = p.validate
		}
	}
	p.v, p.validate = nil, nil
	p.Custom = maps.Clone(p.Custom)
	return p
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0 && val == val
	}
	return true
}
