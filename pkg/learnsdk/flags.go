package learnsdk

import (
	"context"
	"strings"
	"sync"
)

// FlagStore holds one-shot flags that survive between calls, such as a pending
// educator registration waiting for OTP verification.
type FlagStore interface {
	SetFlag(ctx context.Context, key string) error
	// ConsumeFlag clears key and reports whether it was set.
	ConsumeFlag(ctx context.Context, key string) (bool, error)
}

type MemoryFlagStore struct {
	mu    sync.Mutex
	flags map[string]struct{}
}

func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{flags: make(map[string]struct{})}
}

func (s *MemoryFlagStore) SetFlag(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[key] = struct{}{}
	return nil
}

func (s *MemoryFlagStore) ConsumeFlag(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.flags[key]
	delete(s.flags, key)
	return ok, nil
}

// pendingEducatorKey scopes the flag to one account, so verifying a different
// email never consumes it.
func pendingEducatorKey(email string) string {
	return "pending_educator:" + normalizeEmail(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
