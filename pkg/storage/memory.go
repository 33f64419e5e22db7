package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStorage keeps sessions in process. Sessions are stored serialised
// so a loaded session never aliases one held by a caller.
type MemoryStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	pingError error
}

// Ensure MemoryStorage implements Storage interface
var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an in-process store. A ttl of zero keeps
// sessions forever.
func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[uuid.UUID]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetPingError configures Ping to fail with err. A nil err restores it.
func (m *MemoryStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) SaveSession(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	if s.ID == uuid.Nil {
		return errors.New("session id is required")
	}

	now := m.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	entry := memoryEntry{data: data}
	if m.ttl > 0 {
		entry.expiresAt = now.Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(now)
	m.sessions[s.ID] = entry
	return nil
}

// sweepLocked drops every expired session. The caller holds m.mu.
func (m *MemoryStorage) sweepLocked(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for id, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, id)
		}
	}
}

func (m *MemoryStorage) LoadSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, nil
	}

	var s Session
	if err := json.Unmarshal(entry.data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (m *MemoryStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
