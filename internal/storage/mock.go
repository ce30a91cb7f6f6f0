package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/jwebster45206/room-director/pkg/world"
)

// MockStore is a mock implementation of Store for testing
type MockStore struct {
	mu        sync.RWMutex
	worlds    map[string]*world.State
	pingError error
	saveError error
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{
		worlds: make(map[string]*world.State),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on save with the given error
func (m *MockStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping mocks store ping
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks store close
func (m *MockStore) Close() error {
	return nil
}

// SaveWorld mocks saving a world snapshot
func (m *MockStore) SaveWorld(ctx context.Context, name string, state *world.State) error {
	if state == nil {
		return errors.New("world state cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.worlds[name] = state
	return nil
}

// LoadWorld mocks loading a world snapshot
func (m *MockStore) LoadWorld(ctx context.Context, name string) (*world.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.worlds[name], nil
}

// DeleteWorld mocks deleting a world snapshot
func (m *MockStore) DeleteWorld(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.worlds, name)
	return nil
}
