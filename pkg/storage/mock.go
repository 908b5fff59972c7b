package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/novel-engine/pkg/playback"
	"github.com/jwebster45206/novel-engine/pkg/script"
)

// MockStorage is an in-memory Storage for tests.
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]playback.Session
	scripts   map[string]*script.Script
	pingError error
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates an empty mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]playback.Session),
		scripts:  make(map[string]*script.Script),
	}
}

// SetPingError makes Ping fail with err; nil restores success.
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

// SaveSession stores the session by value.
func (m *MockStorage) SaveSession(ctx context.Context, s *playback.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*playback.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockStorage) ListScripts(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]string, len(m.scripts))
	for filename, s := range m.scripts {
		result[s.Name] = filename
	}
	return result, nil
}

func (m *MockStorage) GetScript(ctx context.Context, filename string) (*script.Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scripts[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, filename)
	}
	return s, nil
}

// AddScript registers a script under a file name.
func (m *MockStorage) AddScript(filename string, s *script.Script) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.FileName == "" {
		s.FileName = filename
	}
	m.scripts[filename] = s
}
