package session

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithConfig sets the whole configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.config = cfg
	}
}

// WithName sets the id prefix.
func WithName(name string) Option {
	return func(m *Manager) {
		m.config.Name = name
	}
}

// WithExpire sets the server-side TTL.
func WithExpire(d time.Duration) Option {
	return func(m *Manager) {
		m.config.Expire = d
	}
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}
