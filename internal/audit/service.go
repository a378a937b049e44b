package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to holders by default.
// - Callers should treat audit logging as best-effort. The one exception is
//   the pricing config audit, which is written atomically by the pricing
//   store itself; events recorded here are the operational trail.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ActorID == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogManualTransaction records an admin-entered transaction with its justification.
func (s *Service) LogManualTransaction(ctx context.Context, actorID, actorRole, ip, transactionID, justification string) error {
	return s.Append(ctx, Event{
		Type:          EventTypeManualTransaction,
		ActorID:       actorID,
		ActorRole:     actorRole,
		IPAddress:     ip,
		TransactionID: transactionID,
		Message:       justification,
	})
}

// LogWalletAdjustment records a privileged wallet mutation.
func (s *Service) LogWalletAdjustment(ctx context.Context, actorID, actorRole, ip, walletID, reason, metadata string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeWalletAdjustment,
		ActorID:   actorID,
		ActorRole: actorRole,
		IPAddress: ip,
		WalletID:  walletID,
		Message:   reason,
		Metadata:  metadata,
	})
}

// LogGiftCardBatch records the issuance of a gift code batch.
func (s *Service) LogGiftCardBatch(ctx context.Context, actorID, actorRole, ip, batchID, metadata string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeGiftCardBatch,
		ActorID:   actorID,
		ActorRole: actorRole,
		IPAddress: ip,
		BatchID:   batchID,
		Message:   "gift code batch issued",
		Metadata:  metadata,
	})
}

// LogConfigChange records the operational trail of a global config write.
// The authoritative old/new record lives in config_audit_log, written in the
// same transaction as the change itself.
func (s *Service) LogConfigChange(ctx context.Context, actorID, actorRole, ip, key, metadata string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeConfigChange,
		ActorID:   actorID,
		ActorRole: actorRole,
		IPAddress: ip,
		ConfigKey: key,
		Message:   "global config updated",
		Metadata:  metadata,
	})
}
