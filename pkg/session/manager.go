package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"github.com/dmitrymomot/callgate/pkg/logger"
)

const idEntropyBytes = 18

// Manager creates, loads, saves and destroys sessions on a Store.
// It keeps no state between calls: every load goes to the store.
type Manager struct {
	store  Store
	config Config
	logger *slog.Logger
}

// New creates a Manager on store with DefaultConfig.
func New(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		config: DefaultConfig(),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.config.Expire <= 0 {
		m.config.Expire = defaultExpire
	}
	return m
}

// Config returns the active configuration.
func (m *Manager) Config() Config {
	return m.config
}

// NewID returns Name followed by 36 lowercase hex characters.
// Uniqueness is probabilistic; the store is not consulted.
func (m *Manager) NewID() string {
	b := make([]byte, idEntropyBytes)
	_, _ = rand.Read(b)
	return m.config.Name + hex.EncodeToString(b)
}

// Load returns the data stored for id. An empty id yields empty data
// without touching the store.
func (m *Manager) Load(ctx context.Context, id string) (Data, error) {
	if id == "" {
		return Data{}, nil
	}
	if m.store == nil {
		return nil, ErrNoStore
	}
	return m.store.Get(ctx, id)
}

// Save merges data over the stored state and refreshes the TTL.
// Returns false without error for an empty id.
func (m *Manager) Save(ctx context.Context, id string, data Data) (Data, bool, error) {
	if id == "" {
		return nil, false, nil
	}
	if m.store == nil {
		return nil, false, ErrNoStore
	}

	stored, err := m.store.Set(ctx, id, data, true, m.config.Expire)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to save session", logger.SessionID(id), logger.Error(err))
		return nil, false, err
	}
	return stored, true, nil
}

// Destroy removes the session. False for an empty id, true otherwise,
// whether or not anything was stored.
func (m *Manager) Destroy(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	if m.store == nil {
		return false, ErrNoStore
	}
	if _, err := m.store.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// Handle binds id to the manager. A nil preloaded map triggers a Load.
func (m *Manager) Handle(ctx context.Context, id string, preloaded Data) (*Handle, error) {
	data := preloaded
	if data == nil {
		var err error
		if data, err = m.Load(ctx, id); err != nil {
			return nil, err
		}
	}
	return &Handle{id: id, data: data.Clone(), manager: m}, nil
}
