package giftcard

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory code store with the same check-and-set
// semantics as the Postgres redeemer, useful for tests.
//
// NOTE: This is not intended for production; replace with Postgres implementation.
type MemoryStore struct {
	mu      sync.Mutex
	codes   map[string]Code // keyed by the secret code string
	batches []Batch
	clock   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]Code), clock: time.Now}
}

func (s *MemoryStore) InsertBatch(ctx context.Context, b Batch, codes []Code) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches, b)
	for _, c := range codes {
		s.codes[c.Code] = c
	}
	return nil
}

func (s *MemoryStore) FindCode(ctx context.Context, code string) (Code, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return Code{}, ErrNotFound
	}
	return c, nil
}

// Redeem mirrors RedeemCode: the check and the flip happen under one lock,
// so exactly one concurrent caller wins.
func (s *MemoryStore) Redeem(ctx context.Context, code, redeemedBy, txID string) (Code, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return Code{}, ErrNotFound
	}
	if c.Redeemed {
		return Code{}, ErrAlreadyRedeemed
	}

	now := s.clock().UTC()
	c.Redeemed = true
	c.RedeemedBy = redeemedBy
	c.RedeemedTx = txID
	c.RedeemedAt = &now
	s.codes[code] = c
	return c, nil
}

func (s *MemoryStore) Batches() []Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Batch, len(s.batches))
	copy(out, s.batches)
	return out
}
