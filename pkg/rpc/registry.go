package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/dmitrymomot/callgate/pkg/logger"
	"github.com/dmitrymomot/callgate/pkg/session"
)

// Handler serves a call and returns its result.
type Handler func(ctx context.Context, call *Call) (any, error)

// CustomAccessFunc is an application-defined check run for calls whose
// policy carries a truthy value under its key. Returning an error denies.
type CustomAccessFunc func(ctx context.Context, value any, sess session.Data, call *Call) error

type entry struct {
	name    string
	handler Handler
	policy  Policy
}

// Registry maps call names to handlers and policies.
type Registry struct {
	mu          sync.RWMutex
	entries     map[string]entry
	custom      map[string]CustomAccessFunc
	customOrder []string
	hooks       Hooks
	logger      *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(hooks Hooks, log *slog.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{
		entries: make(map[string]entry),
		custom:  make(map[string]CustomAccessFunc),
		hooks:   hooks,
		logger:  log,
	}
}

// CallName joins a resource and a sub-name: "users list".
func CallName(resource, sub string) string {
	return resource + " " + sub
}

// Register adds the call "<resource> <sub>".
func (r *Registry) Register(resource, sub string, h Handler, opts ...Option) error {
	return r.add(CallName(resource, sub), h, buildPolicy(opts))
}

func (r *Registry) add(name string, h Handler, policy Policy) error {
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, name)
	}
	if slices.Contains(policy.Schema, nil) {
		return fmt.Errorf("%w: %s", ErrInvalidSchema, name)
	}

	r.mu.Lock()
	if _, exists := r.entries[name]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateCall, name)
	}
	r.entries[name] = entry{name: name, handler: h, policy: policy}
	r.mu.Unlock()

	r.registered(name)
	return nil
}

func (r *Registry) registered(name string) {
	r.logger.Debug("call registered", logger.CallName(name))
	if r.hooks.OnRegistered != nil {
		r.hooks.OnRegistered(name)
	}
}

// RegisterCustomAccess installs fn under key. Checks run in the order
// their keys were first registered; re-registering replaces the function.
func (r *Registry) RegisterCustomAccess(key string, fn CustomAccessFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.custom[key]; !exists {
		r.customOrder = append(r.customOrder, key)
	}
	r.custom[key] = fn
}

// Validate reports policies that reference custom access keys nobody
// registered. Such keys are ignored at call time.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.namesLocked() {
		for key := range r.entries[name].policy.Custom {
			if _, ok := r.custom[key]; !ok {
				errs = append(errs, fmt.Errorf("%w: %q used by %s", ErrUnknownCustomAccess, key, name))
			}
		}
	}
	return errors.Join(errs...)
}

// Policy returns the policy of name or the default when it is unknown.
func (r *Registry) Policy(name string) Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return e.policy
	}
	return DefaultPolicy()
}

func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

type customCheck struct {
	key string
	fn  CustomAccessFunc
}

func (r *Registry) customChecks() []customCheck {
	r.mu.RLock()
	defer r.mu.RUnlock()
	checks := make([]customCheck, 0, len(r.customOrder))
	for _, key := range r.customOrder {
		checks = append(checks, customCheck{key: key, fn: r.custom[key]})
	}
	return checks
}

// Names lists registered calls sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module scopes registrations to one resource.
func (r *Registry) Module(resource string) *Module {
	return &Module{registry: r, resource: resource}
}

type pending struct {
	name    string
	handler Handler
	policy  Policy
}

// Module registers calls under a resource prefix. Modules handed to loaders
// by Server.Load buffer registrations until the loader succeeds.
type Module struct {
	registry *Registry
	resource string
	buffered bool
	pending  []pending
}

// Resource returns the prefix.
func (m *Module) Resource() string {
	return m.resource
}

// Register adds the call "<resource> <sub>".
func (m *Module) Register(sub string, h Handler, opts ...Option) error {
	name := CallName(m.resource, sub)
	policy := buildPolicy(opts)

	if !m.buffered {
		return m.registry.add(name, h, policy)
	}
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, name)
	}
	if slices.Contains(policy.Schema, nil) {
		return fmt.Errorf("%w: %s", ErrInvalidSchema, name)
	}
	m.pending = append(m.pending, pending{name: name, handler: h, policy: policy})
	return nil
}

// RegisterCustomAccess forwards to the registry.
func (m *Module) RegisterCustomAccess(key string, fn CustomAccessFunc) {
	m.registry.RegisterCustomAccess(key, fn)
}

// commit registers all buffered calls or none of them.
func (m *Module) commit() error {
	r := m.registry
	pendings := m.pending
	m.pending = nil

	r.mu.Lock()
	seen := make(map[string]struct{}, len(pendings))
	for _, p := range pendings {
		_, exists := r.entries[p.name]
		_, dup := seen[p.name]
		if exists || dup {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateCall, p.name)
		}
		seen[p.name] = struct{}{}
	}
	for _, p := range pendings {
		r.entries[p.name] = entry{name: p.name, handler: p.handler, policy: p.policy}
	}
	r.mu.Unlock()

	for _, p := range pendings {
		r.registered(p.name)
	}
	return nil
}
