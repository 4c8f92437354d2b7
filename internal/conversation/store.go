package conversation

import (
	"context"
	"sync"
	"time"
)

// Store keeps sessions between webhook callbacks.
// Implementations must never hand one call's turns to another call.
type Store interface {
	Get(ctx context.Context, callSID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, callSID string) error
}

// MemoryStore holds sessions in process memory.
// Sessions idle for longer than IdleTTL are dropped by EvictIdle.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	IdleTTL  time.Duration
}

func NewMemoryStore(idleTTL time.Duration) *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session), IdleTTL: idleTTL}
}

func (m *MemoryStore) Get(_ context.Context, callSID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[callSID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.CallSID] = s.clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, callSID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, callSID)
	return nil
}

// EvictIdle removes sessions not updated since now-IdleTTL and returns how many were removed.
func (m *MemoryStore) EvictIdle(now time.Time) int {
	if m.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.IdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for sid, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, sid)
			n++
		}
	}
	return n
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
