package catalog

import (
	"context"
	"sync"
)

// MemoryRepo is a simple in-memory catalog useful for tests and early development.
//
// NOTE: This is not intended for production; replace with Postgres implementation.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]SKU
}

func NewMemoryRepo(skus ...SKU) *MemoryRepo {
	r := &MemoryRepo{byID: make(map[string]SKU, len(skus))}
	for _, s := range skus {
		r.byID[s.ID] = s
	}
	return r
}

func (r *MemoryRepo) Put(s SKU) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = s
}

func (r *MemoryRepo) FindByID(ctx context.Context, id string) (SKU, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return SKU{}, ErrSKUNotFound
	}
	return s, nil
}

func (r *MemoryRepo) FindByCode(ctx context.Context, code string) (SKU, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.byID {
		if s.Code == code {
			return s, nil
		}
	}
	return SKU{}, ErrSKUNotFound
}
