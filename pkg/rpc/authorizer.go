package rpc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/callgate/pkg/logger"
	"github.com/dmitrymomot/callgate/pkg/validator"
)

// Authorizer enforces call policies: schema, session, sign-in, access flag
// and custom checks, in that order. The first failure rejects the call.
type Authorizer struct {
	registry *Registry
	hooks    Hooks
	logger   *slog.Logger
}

// NewAuthorizer creates the authorization stage for calls in registry.
func NewAuthorizer(registry *Registry, hooks Hooks, log *slog.Logger) *Authorizer {
	if log == nil {
		log = logger.Discard()
	}
	return &Authorizer{registry: registry, hooks: hooks, logger: log}
}

// Stage returns the inbound stage running the authorizer.
func (a *Authorizer) Stage() Stage {
	return Stage{Name: "authorize", Order: OrderAuthorize, Fn: a.Authorize}
}

// Authorize checks call against the policy registered for its name.
func (a *Authorizer) Authorize(ctx context.Context, call *Call) error {
	if a.hooks.OnCallBefore != nil {
		a.hooks.OnCallBefore(ctx, call)
	}

	policy := a.registry.Policy(call.Name)
	connID := call.Conn.ID

	if len(policy.Schema) > 0 {
		if err := validator.ValidateArgs(policy.Schema, call.Args); err != nil {
			verrs := validator.ExtractValidationErrors(err)
			if verrs == nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidSchema, call.Name, err)
			}
			return &ValidationError{
				Message: fmt.Sprintf("[API Validation error]: API '%s' call (%s)", call.Name, connID),
				Errors:  formatArgErrors(verrs),
			}
		}
	}

	sess, hasSession := call.Session()

	if policy.Session && !hasSession {
		return sessionDenied(call.Name, connID)
	}

	data := call.SessionData()

	if policy.Authed && !data.Authed() {
		return authDenied(call.Name, connID)
	}

	if policy.Access != "" && policy.Authed && !data.HasAccess(policy.Access) {
		user, _ := data.User()
		return accessDenied(call.Name, connID, user.ID(), user.Name())
	}

	for _, check := range a.registry.customChecks() {
		value, ok := policy.Custom[check.key]
		if !ok || !truthy(value) || check.fn == nil {
			continue
		}
		if err := check.fn(ctx, value, data, call); err != nil {
			a.logger.DebugContext(ctx, "custom access check denied call",
				logger.CallName(call.Name),
				logger.ConnID(connID),
				slog.String("check", check.key),
				logger.Error(err),
			)
			return err
		}
	}

	if hasSession {
		a.logger.DebugContext(ctx, "call authorized",
			logger.CallName(call.Name),
			logger.SessionID(sess.ID()),
		)
	}

	if a.hooks.OnCallAfter != nil {
		a.hooks.OnCallAfter(ctx, call, policy)
	}
	return nil
}

// formatArgErrors renders "[Arg #<n>[ <label>] <message>]" entries, each
// followed by ":" and the offending value when one was supplied.
func formatArgErrors(errs validator.ValidationErrors) []any {
	out := make([]any, 0, len(errs)*2)
	for _, e := range errs {
		pos, ok := validator.ArgPosition(e.Field)
		name := e.Field
		if ok {
			name = fmt.Sprintf("#%d", pos)
		}

		value, hasValue := e.TranslationValues["value"]

		if e.TranslationKey == "validation.required" && !hasValue {
			out = append(out, fmt.Sprintf("[Arg %s is required]", name))
			continue
		}

		label := ""
		if l, ok := e.TranslationValues["label"].(string); ok && l != "" {
			label = " <" + l + ">"
		}
		msg := fmt.Sprintf("[Arg %s%s %s]", name, label, e.Message)
		if hasValue {
			out = append(out, msg+":", value)
			continue
		}
		out = append(out, msg)
	}
	return out
}
