package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/callgate/pkg/ratelimiter"
	"github.com/dmitrymomot/callgate/pkg/rpc"
	"github.com/dmitrymomot/callgate/pkg/validator"
)

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, OutcomeOK},
		{"validation", &rpc.ValidationError{Message: "bad"}, OutcomeValidation},
		{"session", &rpc.AccessError{Kind: rpc.AccessSession}, OutcomeSession},
		{"auth", &rpc.AccessError{Kind: rpc.AccessAuth}, OutcomeAuth},
		{"access", &rpc.AccessError{Kind: rpc.AccessDenied}, OutcomeAccess},
		{"unknown call", fmt.Errorf("%w: 'a b'", rpc.ErrUnknownCall), OutcomeUnknown},
		{"throttled", &ratelimiter.LimitError{Call: "a b"}, OutcomeThrottled},
		{"internal", fmt.Errorf("%w: panic", rpc.ErrInternal), OutcomeInternal},
		{"handler error", errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestCollector_Hooks(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("test"))

	srv, err := rpc.NewServer(rpc.WithHooks(m.Hooks()))
	require.NoError(t, err)

	r := srv.Registry()
	require.NoError(t, r.Register("ping", "get", func(context.Context, *rpc.Call) (any, error) {
		return "pong", nil
	}, rpc.Anonymous()))
	require.NoError(t, r.Register("ping", "typed", func(context.Context, *rpc.Call) (any, error) {
		return nil, nil
	}, rpc.Anonymous(), rpc.Schema(validator.Number())))
	require.NoError(t, r.Register("me", "get", func(context.Context, *rpc.Call) (any, error) {
		return nil, nil
	}))

	loaded := srv.Load(rpc.ModuleLoader{Name: "broken", Load: func(*rpc.Module) error {
		return errors.New("nope")
	}})
	assert.Empty(t, loaded)

	ctx := context.Background()
	conn := &rpc.ConnInfo{ID: "c1"}

	_, err = srv.Dispatch(ctx, conn, "ping get", nil)
	require.NoError(t, err)
	_, err = srv.Dispatch(ctx, conn, "ping get", nil)
	require.NoError(t, err)
	_, err = srv.Dispatch(ctx, conn, "ping typed", []any{"x"})
	require.Error(t, err)
	_, err = srv.Dispatch(ctx, conn, "me get", nil)
	require.Error(t, err)
	_, err = srv.Dispatch(ctx, conn, "no such", nil)
	require.Error(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.callsTotal.WithLabelValues("ping get", OutcomeOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.callsTotal.WithLabelValues("ping typed", OutcomeValidation)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.callsTotal.WithLabelValues("me get", OutcomeSession)))
	// The default policy rejects the unknown call before lookup.
	assert.Equal(t, float64(1), testutil.ToFloat64(m.callsTotal.WithLabelValues(unknownCallLabel, OutcomeSession)))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.registered))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.loadErrors.WithLabelValues("broken")))
	assert.Equal(t, 4, testutil.CollectAndCount(m.callsTotal))
}

func TestCollector_Connections(t *testing.T) {
	t.Parallel()

	m := New(WithRegistry(prometheus.NewRegistry()))
	conn := &rpc.ConnInfo{ID: "c1"}

	m.ConnOpened(conn)
	m.ConnOpened(conn)
	m.ConnClosed(conn)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.connections))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.connectedTotal))
}

func TestCollector_ObserveCall(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithBuckets([]float64{0.1, 1}))

	m.ObserveCall("a b", OutcomeOK, 50*time.Millisecond)
	m.ObserveCall(unknownCallLabel, OutcomeUnknown, time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.callDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "callgate_calls_total")
	assert.Contains(t, names, "callgate_call_duration_seconds")
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	New(WithRegistry(reg))
	assert.Panics(t, func() { New(WithRegistry(reg)) })
}
