package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eino_dialogue/internal/core"
	"eino_dialogue/internal/logger"
	"eino_dialogue/internal/memory"
)

// SessionStore persists ConversationMemory snapshots by session ID
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*memory.ConversationMemory, error)
	Save(ctx context.Context, sessionID string, mem *memory.ConversationMemory) error
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// NewSessionStore returns a Redis store when a Redis URL is configured, an in-memory store otherwise
func NewSessionStore(ctx context.Context, config core.StorageConfig) (SessionStore, error) {
	if config.RedisURL == "" {
		logger.Info().Dur("ttl", config.SessionTTL).Msg("Using in-memory session store")
		return NewMemorySessionStore(config.SessionTTL), nil
	}
	return NewRedisStore(ctx, config.RedisURL, config.SessionTTL)
}

type memoryEntry struct {
	data      []byte
	updatedAt time.Time
}

// MemorySessionStore is an in-memory SessionStore for development and tests. It keeps encoded
// snapshots so a loaded memory never aliases a saved one.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates a new in-memory session store
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Load retrieves a session and refreshes its TTL
func (m *MemorySessionStore) Load(ctx context.Context, sessionID string) (*memory.ConversationMemory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("session %s: %w", sessionID, core.ErrSessionNotFound)
	}

	// Check if session has expired
	now := m.now()
	if now.Sub(entry.updatedAt) > m.ttl {
		delete(m.sessions, sessionID)
		return nil, fmt.Errorf("session %s expired: %w", sessionID, core.ErrSessionNotFound)
	}

	mem, err := memory.Unmarshal(entry.data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}

	entry.updatedAt = now
	m.sessions[sessionID] = entry
	return mem, nil
}

// Save saves or updates a session
func (m *MemorySessionStore) Save(ctx context.Context, sessionID string, mem *memory.ConversationMemory) error {
	if sessionID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}

	data, err := mem.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = memoryEntry{data: data, updatedAt: m.now()}
	return nil
}

// Delete removes a session
func (m *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// Close is a no-op
func (m *MemorySessionStore) Close() error {
	return nil
}
