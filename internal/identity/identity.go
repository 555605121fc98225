// Package identity resolves and persists the table session a client is bound to.
package identity

import (
	"fmt"
	"strings"
	"sync"
)

// Storage keys for the durable identity values.
const (
	KeySessionID = "identity.session_id"
	KeyTableID   = "identity.table_id"
)

// Identity is the session/table pair used by every session-scoped call.
type Identity struct {
	SessionID string
	TableID   string
}

// HasSession reports whether a session id is known.
func (i Identity) HasSession() bool {
	return strings.TrimSpace(i.SessionID) != ""
}

// KV is the durable key-value store backing the identity. Set must apply all
// values before returning so readers never see half of an identity.
type KV interface {
	Get(key string) string
	Set(values map[string]string) error
	Delete(keys ...string) error
}

// Store reads and writes the identity keys. It never touches the network.
type Store struct {
	kv KV
	mu sync.RWMutex
}

// NewStore wraps kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Resolve returns the identity to use: explicit arguments win, then the
// persisted values, then empty strings.
func (s *Store) Resolve(explicitSessionID, explicitTableID string) Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := Identity{
		SessionID: strings.TrimSpace(explicitSessionID),
		TableID:   strings.TrimSpace(explicitTableID),
	}
	if id.SessionID == "" {
		id.SessionID = strings.TrimSpace(s.kv.Get(KeySessionID))
	}
	if id.TableID == "" {
		id.TableID = strings.TrimSpace(s.kv.Get(KeyTableID))
	}
	return id
}

// Current is Resolve without explicit arguments.
func (s *Store) Current() Identity {
	return s.Resolve("", "")
}

// Save overwrites both keys.
func (s *Store) Save(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(map[string]string{
		KeySessionID: id.SessionID,
		KeyTableID:   id.TableID,
	}); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// Clear purges both keys.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(KeySessionID, KeyTableID); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}

// MemoryKV is an in-process KV, used when no config directory is available.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func (m *MemoryKV) Set(values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *MemoryKV) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
