package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NonceTTL bounds how long a login challenge stays valid.
const NonceTTL = 5 * time.Minute

// NonceStore issues and consumes one-time login challenges.
type NonceStore interface {
	Issue(ctx context.Context, wallet string) (string, error)
	// Consume removes the nonce and reports whether it was valid for wallet.
	Consume(ctx context.Context, wallet, nonce string) (bool, error)
}

// MemoryNonceStore is an in-process NonceStore.
type MemoryNonceStore struct {
	mu     sync.Mutex
	nonces map[string]nonceEntry
}

type nonceEntry struct {
	nonce     string
	expiresAt time.Time
}

// NewMemoryNonceStore creates an empty nonce store.
func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{nonces: make(map[string]nonceEntry)}
}

func (s *MemoryNonceStore) Issue(_ context.Context, wallet string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce := uuid.NewString()
	s.nonces[wallet] = nonceEntry{nonce: nonce, expiresAt: time.Now().Add(NonceTTL)}
	return nonce, nil
}

func (s *MemoryNonceStore) Consume(_ context.Context, wallet, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.nonces[wallet]
	if !ok {
		return false, nil
	}
	delete(s.nonces, wallet)
	if time.Now().After(entry.expiresAt) {
		return false, nil
	}
	return entry.nonce == nonce, nil
}
