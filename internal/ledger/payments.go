package ledger

import (
	"context"
	"fmt"

	"impact-platform/internal/wallet"
)

// ApplyProcessorEvent applies a payment-processor callback to the
// transaction carrying processorRef. Exactly one caller wins the
// pending->target transition; the winner also reconciles the wallet in the
// same unit of work:
//
//	completed, not yet credited  -> credit lands now (deferred PAY credit)
//	failed, already credited     -> the creation-time credit is reversed
//
// Replaying a terminal status the transaction already carries is a no-op
// and returns the stored row. Any other transition out of a terminal
// status (including anything out of n/a) is ErrInvalidTransition.
func (m *Manager) ApplyProcessorEvent(ctx context.Context, processorRef string, target Status) (Transaction, error) {
	if processorRef == "" {
		return Transaction{}, fmt.Errorf("%w: processor reference required", ErrValidation)
	}
	if target != StatusCompleted && target != StatusFailed {
		return Transaction{}, fmt.Errorf("%w: processor cannot set %q", ErrInvalidTransition, target)
	}

	threshold, err := m.rates.CertifiedThreshold(ctx)
	if err != nil {
		return Transaction{}, err
	}

	now := m.clock().UTC()

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	t, err := tx.GetTransactionByProcessorRef(ctx, processorRef)
	if err != nil {
		return Transaction{}, err
	}

	won, err := tx.TransitionStatus(ctx, t.ID, target, target == StatusCompleted, now)
	if err != nil {
		return Transaction{}, err
	}
	if !won {
		// The row was not pending. Re-read: a concurrent webhook may have
		// finished it between our read and the guarded update.
		cur, err := tx.GetTransactionByProcessorRef(ctx, processorRef)
		if err != nil {
			return Transaction{}, err
		}
		if cur.PaymentStatus == target {
			return cur, nil
		}
		return Transaction{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.PaymentStatus, target)
	}

	// This call owns the transition; t is the pre-transition row and only
	// the winner ever moves wallet_credited.
	holder := t.Holder()
	switch {
	case target == StatusCompleted && !t.WalletCredited:
		if _, err := tx.CreditWallet(ctx, holder, t.Impact, t.Amount, threshold); err != nil {
			return Transaction{}, err
		}
	case target == StatusFailed && t.WalletCredited:
		if _, err := tx.ApplyWalletDelta(ctx, holder, wallet.ReversalDelta(t.Impact, t.Amount), threshold); err != nil {
			return Transaction{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Transaction{}, err
	}

	t.PaymentStatus = target
	t.WalletCredited = target == StatusCompleted
	t.StatusChangedAt = now

	if m.events != nil {
		switch target {
		case StatusCompleted:
			m.events.TransactionCompleted(ctx, t)
		case StatusFailed:
			m.events.TransactionFailed(ctx, t)
		}
	}
	return t, nil
}
