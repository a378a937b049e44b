package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrInvalidAdjustment   = errors.New("invalid adjustment")
)

// Store is the persistence contract for wallet reads and admin adjustments.
// Transaction-driven credits do not go through it; the ledger composes the
// package-level helpers inside its own unit of work.
type Store interface {
	Get(ctx context.Context, h Holder) (Wallet, error)
	Adjust(ctx context.Context, h Holder, a Adjustment, threshold decimal.NullDecimal) (Wallet, error)
}

// ThresholdSource yields the certified-asset threshold. Implemented by
// pricing.Oracle; a stale committed value is acceptable.
type ThresholdSource interface {
	CertifiedThreshold(ctx context.Context) (decimal.NullDecimal, error)
}

// Service provides the holder-facing wallet read and the administrative
// adjustment path.
//
// Money invariants:
// - adjustments are append-only records applied through the delta primitive
// - current_balance is derived, never written directly
type Service struct {
	store      Store
	thresholds ThresholdSource
	clock      func() time.Time
}

func NewService(store Store, thresholds ThresholdSource) *Service {
	return &Service{store: store, thresholds: thresholds, clock: time.Now}
}

func (s *Service) Get(ctx context.Context, h Holder) (Wallet, error) {
	if err := h.Validate(); err != nil {
		return Wallet{}, err
	}
	return s.store.Get(ctx, h)
}

type AdjustRequest struct {
	ImpactDelta decimal.Decimal
	AmountDelta decimal.Decimal
	Reason      string
	Actor       string
}

// Adjust applies a manual correction to the holder's wallet. The reason is
// mandatory; it is the only record of why the numbers moved.
func (s *Service) Adjust(ctx context.Context, h Holder, req AdjustRequest) (Wallet, Adjustment, error) {
	if err := h.Validate(); err != nil {
		return Wallet{}, Adjustment{}, err
	}
	if req.Reason == "" || req.Actor == "" {
		return Wallet{}, Adjustment{}, ErrInvalidAdjustment
	}
	if req.ImpactDelta.IsZero() && req.AmountDelta.IsZero() {
		return Wallet{}, Adjustment{}, ErrInvalidAdjustment
	}

	threshold, err := s.thresholds.CertifiedThreshold(ctx)
	if err != nil {
		return Wallet{}, Adjustment{}, err
	}

	adj := Adjustment{
		ID:          uuid.NewString(),
		ImpactDelta: req.ImpactDelta,
		AmountDelta: req.AmountDelta,
		Reason:      req.Reason,
		Actor:       req.Actor,
		CreatedAt:   s.clock().UTC(),
	}

	w, err := s.store.Adjust(ctx, h, adj, threshold)
	if err != nil {
		return Wallet{}, Adjustment{}, err
	}
	adj.WalletID = w.ID
	return w, adj, nil
}
