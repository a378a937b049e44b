package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory wallet store with the same delta semantics as
// the Postgres one, useful for tests.
//
// NOTE: This is not intended for production; replace with Postgres implementation.
type MemoryStore struct {
	mu          sync.Mutex
	wallets     map[string]Wallet // keyed by Holder.Ref()
	adjustments []Adjustment
	clock       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{wallets: make(map[string]Wallet), clock: time.Now}
}

func (s *MemoryStore) Get(ctx context.Context, h Holder) (Wallet, error) {
	_ = ctx
	if err := h.Validate(); err != nil {
		return Wallet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[h.Ref()]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, h Holder) (Wallet, error) {
	_ = ctx
	if err := h.Validate(); err != nil {
		return Wallet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(h), nil
}

func (s *MemoryStore) Credit(ctx context.Context, h Holder, impact, amount decimal.Decimal, threshold decimal.NullDecimal) (Wallet, error) {
	_ = ctx
	if err := h.Validate(); err != nil {
		return Wallet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.getOrCreateLocked(h)
	w = w.Apply(CreditDelta(impact, amount), threshold, s.clock().UTC())
	s.wallets[h.Ref()] = w
	return w, nil
}

func (s *MemoryStore) Debit(ctx context.Context, h Holder, impact decimal.Decimal, threshold decimal.NullDecimal) (Wallet, error) {
	_ = ctx
	if err := h.Validate(); err != nil {
		return Wallet{}, err
	}
	if !impact.IsPositive() {
		return Wallet{}, ErrInvalidAdjustment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[h.Ref()]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	if w.CurrentBalance.LessThan(impact) {
		return Wallet{}, ErrInsufficientBalance
	}
	w = w.Apply(DebitDelta(impact), threshold, s.clock().UTC())
	s.wallets[h.Ref()] = w
	return w, nil
}

func (s *MemoryStore) Adjust(ctx context.Context, h Holder, a Adjustment, threshold decimal.NullDecimal) (Wallet, error) {
	_ = ctx
	if err := h.Validate(); err != nil {
		return Wallet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.getOrCreateLocked(h)
	a.WalletID = w.ID
	s.adjustments = append(s.adjustments, a)

	w = w.Apply(a.delta(), threshold, s.clock().UTC())
	s.wallets[h.Ref()] = w
	return w, nil
}

func (s *MemoryStore) Adjustments() []Adjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Adjustment, len(s.adjustments))
	copy(out, s.adjustments)
	return out
}

func (s *MemoryStore) getOrCreateLocked(h Holder) Wallet {
	if w, ok := s.wallets[h.Ref()]; ok {
		return w
	}
	now := s.clock().UTC()
	w := Wallet{
		ID:         uuid.NewString(),
		UserID:     nullable(h.UserID),
		MerchantID: nullable(h.MerchantID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.wallets[h.Ref()] = w
	return w
}
