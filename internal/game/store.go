package game

import (
	"context"
	"sync"
	"time"
)

// sessionPayload is the stored state of one game: enough to rebuild the
// board by replaying the move history from the start position.
type sessionPayload struct {
	SessionUUID string    `json:"session_uuid"`
	Moves       []string  `json:"moves"`
	Status      Status    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists session payloads across requests. Load returns (nil, nil)
// for an unknown id.
type Store interface {
	Save(ctx context.Context, id string, payload *sessionPayload) error
	Load(ctx context.Context, id string) (*sessionPayload, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is the development fallback used when no Redis is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	payloads map[string]*sessionPayload
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{payloads: make(map[string]*sessionPayload)}
}

func (m *MemoryStore) Save(_ context.Context, id string, payload *sessionPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *payload
	copied.Moves = append([]string(nil), payload.Moves...)
	m.payloads[id] = &copied
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*sessionPayload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payloads[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	copied.Moves = append([]string(nil), p.Moves...)
	return &copied, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.payloads, id)
	return nil
}
