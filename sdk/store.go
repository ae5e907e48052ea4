package assistant

import "sync"

// Fixed storage keys for persisted client-local state. The whole set is
// cleared together on logout or unrecoverable auth failure.
const (
	storageKeyAccessToken  = "token"
	storageKeyRefreshToken = "refreshToken"
	storageKeyUserData     = "userData"
	storageKeyAssistants   = "assistantsData"
)

// CredentialStore persists client-local state (tokens, cached profile,
// cached assistant list) under fixed string keys.
//
// internal/localstore provides a file-backed implementation; the default
// is an in-process MemoryStore.
type CredentialStore interface {
	Get(key string) (value string, ok bool, err error)
	Put(key, value string) error
	Delete(key string) error

	// ClearAll removes every key atomically.
	ClearAll() error
}

// MemoryStore is an in-process CredentialStore. It is the default store
// and the one tests use.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return nil
}
