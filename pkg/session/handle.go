package session

import (
	"context"
	"sync"
)

// Handle is the per-connection view of a session: its id, the data as of
// the last load or save, and operations bound to the manager.
// Mutations reach the store only through Save.
type Handle struct {
	mu      sync.RWMutex
	id      string
	data    Data
	manager *Manager
}

// ID returns the session id.
func (h *Handle) ID() string {
	return h.id
}

// Data returns a copy of the current data.
func (h *Handle) Data() Data {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.data.Clone()
}

// Save merges patch into the stored session and adopts the result.
func (h *Handle) Save(ctx context.Context, patch Data) (Data, error) {
	stored, ok, err := h.manager.Save(ctx, h.id, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return h.Data(), nil
	}

	h.mu.Lock()
	h.data = stored.Clone()
	h.mu.Unlock()
	return stored, nil
}

// Destroy removes the session and clears the local data.
func (h *Handle) Destroy(ctx context.Context) (bool, error) {
	ok, err := h.manager.Destroy(ctx, h.id)
	if err != nil {
		return false, err
	}

	h.mu.Lock()
	h.data = Data{}
	h.mu.Unlock()
	return ok, nil
}

// Refresh reloads the data from the store.
func (h *Handle) Refresh(ctx context.Context) (Data, error) {
	data, err := h.manager.Load(ctx, h.id)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.data = data.Clone()
	h.mu.Unlock()
	return data, nil
}
