package auth

import (
	"context"
	"sort"
	"sync"

	"meridian-hq/meridian/pkg/config"
)

// Store persists user records keyed by credential. Implementations must
// be safe for concurrent use.
type Store interface {
	// Get returns the user holding the credential, or nil when no user
	// does.
	Get(ctx context.Context, apiKey string) (*User, error)

	// Put inserts or replaces the user record.
	Put(ctx context.Context, user *User) error

	// List returns all users ordered by user id.
	List(ctx context.Context) ([]*User, error)

	// Close releases the store's resources.
	Close() error
}

// NewStore builds the configured quota store backend.
func NewStore(cfg config.AuthStoreConfig) (Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, cfg.SQLite.BusyTimeout)
	default:
		return NewMemoryStore(), nil
	}
}

// MemoryStore keeps user records in process memory. Quota state is lost
// on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*User),
	}
}

// Get returns a copy of the user holding the credential.
func (s *MemoryStore) Get(ctx context.Context, apiKey string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[apiKey]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

// Put stores a copy of the user record.
func (s *MemoryStore) Put(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *user
	s.users[user.APIKey] = &clone
	return nil
}

// List returns copies of all users ordered by user id.
func (s *MemoryStore) List(ctx context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, 0, len(s.users))
	for _, user := range s.users {
		clone := *user
		users = append(users, &clone)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].UserID < users[j].UserID
	})
	return users, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
