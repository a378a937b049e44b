package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory config store useful for tests.
//
// NOTE: This is not intended for production; replace with Postgres implementation.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	audits []ConfigAudit

	// AuditErr, when set, makes the next SetValue fail after staging the
	// value, mimicking an audit insert failure. The write must not stick.
	AuditErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) GetValue(ctx context.Context, key string) (string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return "", ErrConfigNotFound
	}
	return v, nil
}

func (s *MemoryStore) SetValue(ctx context.Context, key, value, actor string) (string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.values[key]
	if s.AuditErr != nil {
		return "", s.AuditErr
	}

	s.values[key] = value
	s.audits = append(s.audits, ConfigAudit{
		ID:        uuid.NewString(),
		Key:       key,
		OldValue:  old,
		NewValue:  value,
		Actor:     actor,
		CreatedAt: time.Now().UTC(),
	})
	return old, nil
}

func (s *MemoryStore) Audits() []ConfigAudit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConfigAudit, len(s.audits))
	copy(out, s.audits)
	return out
}
