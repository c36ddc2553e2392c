package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/callgate/pkg/logger"
)

const tracerName = "github.com/dmitrymomot/callgate/pkg/rpc"

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithStages adds stages to a phase.
func WithStages(phase Phase, stages ...Stage) ServerOption {
	return func(s *Server) {
		s.stages = append(s.stages, phasedStages{phase: phase, stages: stages})
	}
}

// WithHooks adds lifecycle observers. Repeated options are merged.
func WithHooks(h Hooks) ServerOption {
	return func(s *Server) {
		s.hookSets = append(s.hookSets, h)
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracer overrides the global otel tracer.
func WithTracer(t trace.Tracer) ServerOption {
	return func(s *Server) {
		if t != nil {
			s.tracer = t
		}
	}
}

type phasedStages struct {
	phase  Phase
	stages []Stage
}

// Server dispatches calls through the pipeline to registered handlers.
type Server struct {
	registry   *Registry
	pipeline   *Pipeline
	authorizer *Authorizer
	hooks      Hooks
	hookSets   []Hooks
	stages     []phasedStages
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewServer builds the registry and the pipeline. The authorizer stage is
// always installed in InboundBefore at OrderAuthorize.
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		pipeline: NewPipeline(),
		logger:   logger.Discard(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hooks = MergeHooks(s.hookSets...)
	s.registry = NewRegistry(s.hooks, s.logger)
	s.authorizer = NewAuthorizer(s.registry, s.hooks, s.logger)

	if err := s.pipeline.Use(InboundBefore, s.authorizer.Stage()); err != nil {
		return nil, err
	}
	for _, ps := range s.stages {
		if err := s.pipeline.Use(ps.phase, ps.stages...); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Registry returns the call registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Pipeline returns the stage pipeline.
func (s *Server) Pipeline() *Pipeline {
	return s.pipeline
}

// Dispatch runs one call: inbound-before stages (authorization included),
// the handler, inbound-after stages, then the outbound stages. Panics are
// recovered and reported as ErrInternal.
func (s *Server) Dispatch(ctx context.Context, conn *ConnInfo, name string, args []any) (result any, err error) {
	call := NewCall(conn, name, args)

	ctx, span := s.tracer.Start(ctx, "rpc "+name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.method", name),
			attribute.String("rpc.conn_id", call.Conn.ID),
			attribute.Int("rpc.args", len(call.Args)),
		),
	)

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.ErrorContext(ctx, "call panicked",
				logger.CallName(name),
				logger.ConnID(call.Conn.ID),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			result, err = nil, fmt.Errorf("%w: panic in %s", ErrInternal, name)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		if s.hooks.OnOutAfter != nil {
			s.hooks.OnOutAfter(ctx, call, err)
		}
	}()

	return s.run(ctx, call)
}

func (s *Server) run(ctx context.Context, call *Call) (any, error) {
	if err := s.pipeline.Run(ctx, InboundBefore, call); err != nil {
		s.logRejected(ctx, call, err)
		return nil, err
	}

	e, ok := s.registry.lookup(call.Name)
	if !ok {
		err := fmt.Errorf("%w: '%s'", ErrUnknownCall, call.Name)
		s.logger.WarnContext(ctx, "unknown call", logger.CallName(call.Name), logger.ConnID(call.Conn.ID))
		return nil, err
	}

	result, err := e.handler(ctx, call)
	if err != nil {
		s.logger.DebugContext(ctx, "call handler failed",
			logger.CallName(call.Name),
			logger.ConnID(call.Conn.ID),
			logger.Error(err),
		)
		return nil, err
	}
	call.Result = result

	if err := s.pipeline.Run(ctx, InboundAfter, call); err != nil {
		return nil, err
	}

	if s.hooks.OnOutBefore != nil {
		s.hooks.OnOutBefore(ctx, call)
	}
	if err := s.pipeline.Run(ctx, OutboundBefore, call); err != nil {
		return nil, err
	}
	if err := s.pipeline.Run(ctx, OutboundAfter, call); err != nil {
		return nil, err
	}

	return call.Result, nil
}

func (s *Server) logRejected(ctx context.Context, call *Call, err error) {
	var (
		verr *ValidationError
		aerr *AccessError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &aerr):
		s.logger.InfoContext(ctx, "call rejected",
			logger.CallName(call.Name),
			logger.ConnID(call.Conn.ID),
			logger.Error(err),
		)
	default:
		s.logger.WarnContext(ctx, "call stopped before handler",
			logger.CallName(call.Name),
			logger.ConnID(call.Conn.ID),
			logger.Error(err),
		)
	}
}

// ModuleLoader registers the calls of one resource.
type ModuleLoader struct {
	Name string
	Load func(m *Module) error
}

// Load runs loaders in order. A loader that fails or panics is logged as a
// HandlerLoadError and none of its calls are registered; the remaining
// loaders still run. Returns the names of modules loaded.
func (s *Server) Load(loaders ...ModuleLoader) []string {
	loaded := make([]string, 0, len(loaders))
	for _, l := range loaders {
		if err := s.loadOne(l); err != nil {
			loadErr := &HandlerLoadError{Module: l.Name, Err: err}
			s.logger.Error("failed to load call module",
				logger.Component(l.Name),
				logger.Error(loadErr),
			)
			if s.hooks.OnLoadError != nil {
				s.hooks.OnLoadError(loadErr)
			}
			continue
		}
		loaded = append(loaded, l.Name)
	}
	return loaded
}

func (s *Server) loadOne(l ModuleLoader) (err error) {
	if l.Load == nil {
		return ErrNoHandler
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInternal, rec)
		}
	}()

	m := &Module{registry: s.registry, resource: l.Name, buffered: true}
	if err := l.Load(m); err != nil {
		return err
	}
	return m.commit()
}
