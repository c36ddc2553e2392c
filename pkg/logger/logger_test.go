package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/callgate/pkg/logger"
)

type ctxKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			logger.New(logger.WithFormat("xml"))
		})
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("node", "a1")))
		log.Info("hello")
		assert.Equal(t, "a1", decode(t, buf)["node"])
	})

	t.Run("context extractors", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
				v, ok := ctx.Value(ctxKey{}).(string)
				return slog.String("session_id", v), ok
			}),
		)

		ctx := context.WithValue(context.Background(), ctxKey{}, "NSS_abc")
		log.With("component", "test").InfoContext(ctx, "hello")

		entry := decode(t, buf)
		assert.Equal(t, "NSS_abc", entry["session_id"])
		assert.Equal(t, "test", entry["component"])
	})

	t.Run("service in production stays json at info", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithService("callgate", "production"))
		log.Debug("dropped")
		log.Info("kept")

		entry := decode(t, buf)
		assert.Equal(t, "callgate", entry["service"])
		assert.Equal(t, "production", entry["env"])
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log, err := logger.NewFromConfig(logger.Config{
			Level: "warn", Format: "json", Service: "callgate", Env: "production",
		}, logger.WithOutput(buf))
		require.NoError(t, err)

		log.Info("dropped")
		log.Warn("kept")
		assert.Equal(t, "kept", decode(t, buf)["msg"])
	})

	t.Run("invalid level", func(t *testing.T) {
		t.Parallel()
		_, err := logger.NewFromConfig(logger.Config{Level: "loud", Format: "json"})
		assert.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()
		_, err := logger.NewFromConfig(logger.Config{Level: "info", Format: "yaml"})
		assert.Error(t, err)
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)
	assert.Equal(t, slog.Attr{}, logger.SessionID(""))
	assert.Equal(t, "NSS_1", logger.SessionID("NSS_1").Value.String())
	assert.Equal(t, slog.Attr{}, logger.UserID(nil))
	assert.Equal(t, "call", logger.CallName("users list").Key)
	assert.Equal(t, slog.Attr{}, logger.ConnID(""))
	assert.Equal(t, slog.Attr{}, logger.RequestID(""))
	assert.Equal(t, "component", logger.Component("rpc").Key)
}
