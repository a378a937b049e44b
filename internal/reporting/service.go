package reporting

import (
	"context"
	"errors"
	"time"

	"impact-platform/internal/ledger"
	"impact-platform/internal/wallet"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Methods must enforce holder/wallet filtering.
// - Reads target the immutable history only (transactions, adjustments);
//   reporting never derives or persists state of its own.

type Repository interface {
	ListTransactions(ctx context.Context, h wallet.Holder, from, to time.Time) ([]ledger.Transaction, error)
	ListAdjustments(ctx context.Context, walletID string, from, to time.Time) ([]wallet.Adjustment, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) ImpactSummary(ctx context.Context, req ImpactSummaryRequest) (ImpactSummary, error) {
	if err := req.Holder.Validate(); err != nil {
		return ImpactSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return ImpactSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return ImpactSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListTransactions(ctx, req.Holder, req.Range.From, req.Range.To)
	if err != nil {
		return ImpactSummary{}, err
	}

	out := ImpactSummary{Holder: req.Holder.Ref()}
	for _, t := range rows {
		out.TotalTransactions++
		out.TotalAmount = out.TotalAmount.Add(t.Amount)
		if t.ConnectFlag {
			out.ConnectFlagged++
		}
		switch t.PaymentStatus {
		case ledger.StatusNA:
			out.ImmediateCount++
		case ledger.StatusPending:
			out.PendingCount++
		case ledger.StatusCompleted:
			out.CompletedCount++
		case ledger.StatusFailed:
			out.FailedCount++
		}
		if t.WalletCredited {
			out.CreditedImpact = out.CreditedImpact.Add(t.Impact)
		} else if t.PaymentStatus == ledger.StatusPending {
			out.PendingImpact = out.PendingImpact.Add(t.Impact)
		}
	}
	return out, nil
}

func (s *Service) AdjustmentSummary(ctx context.Context, req AdjustmentSummaryRequest) (AdjustmentSummary, error) {
	if req.WalletID == "" {
		return AdjustmentSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return AdjustmentSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return AdjustmentSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListAdjustments(ctx, req.WalletID, req.Range.From, req.Range.To)
	if err != nil {
		return AdjustmentSummary{}, err
	}

	out := AdjustmentSummary{WalletID: req.WalletID}
	for _, a := range rows {
		out.Adjustments++
		out.NetImpactDelta = out.NetImpactDelta.Add(a.ImpactDelta)
		out.NetAmountDelta = out.NetAmountDelta.Add(a.AmountDelta)
	}
	return out, nil
}
