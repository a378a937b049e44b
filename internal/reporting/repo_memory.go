package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"impact-platform/internal/ledger"
	"impact-platform/internal/wallet"
)

// MemoryRepo is a simple in-memory reporting repository for tests. It
// enforces the same holder filtering as the Postgres queries.
//
// NOTE: This is not intended for production; replace with Postgres implementation.
type MemoryRepo struct {
	mu sync.Mutex

	Transactions []ledger.Transaction
	Adjustments  []wallet.Adjustment
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListTransactions(ctx context.Context, h wallet.Holder, from, to time.Time) ([]ledger.Transaction, error) {
	if err := h.Validate(); err != nil {
		return nil, errors.New("holder required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ledger.Transaction, 0)
	for _, t := range r.Transactions {
		if !sameHolder(t, h) {
			continue
		}
		if t.CreatedAt.Before(from) || !t.CreatedAt.Before(to) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *MemoryRepo) ListAdjustments(ctx context.Context, walletID string, from, to time.Time) ([]wallet.Adjustment, error) {
	if walletID == "" {
		return nil, errors.New("wallet_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]wallet.Adjustment, 0)
	for _, a := range r.Adjustments {
		if a.WalletID != walletID {
			continue
		}
		if a.CreatedAt.Before(from) || !a.CreatedAt.Before(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func sameHolder(t ledger.Transaction, h wallet.Holder) bool {
	if h.UserID != "" {
		return t.UserID != nil && *t.UserID == h.UserID
	}
	return t.UserID == nil && t.MerchantID != nil && *t.MerchantID == h.MerchantID
}
