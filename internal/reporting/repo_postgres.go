package reporting

import (
	"context"
	"fmt"
	"time"

	"impact-platform/internal/ledger"
	"impact-platform/internal/wallet"

	"github.com/jmoiron/sqlx"
)

// PostgresRepo reads the immutable history. Ranges are half-open:
// [from, to).
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListTransactions(ctx context.Context, h wallet.Holder, from, to time.Time) ([]ledger.Transaction, error) {
	const cols = `id, user_id, merchant_id, sku_id, sku_code, partner_id, order_ref,
       amount, impact, payment_status, processor_ref, gift_code_id,
       connect_flag, wallet_credited, created_at, status_changed_at`

	clause := `merchant_id = $1 AND user_id IS NULL`
	arg := h.MerchantID
	if h.UserID != "" {
		clause = `user_id = $1`
		arg = h.UserID
	}
	query := `SELECT ` + cols + ` FROM transactions WHERE ` + clause +
		` AND created_at >= $2 AND created_at < $3 ORDER BY created_at`

	out := []ledger.Transaction{}
	if err := r.db.SelectContext(ctx, &out, query, arg, from, to); err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", h.Ref(), err)
	}
	return out, nil
}

func (r *PostgresRepo) ListAdjustments(ctx context.Context, walletID string, from, to time.Time) ([]wallet.Adjustment, error) {
	const query = `
SELECT id, wallet_id, impact_delta, amount_delta, reason, actor, created_at
FROM wallet_adjustments
WHERE wallet_id = $1 AND created_at >= $2 AND created_at < $3
ORDER BY created_at`

	out := []wallet.Adjustment{}
	if err := r.db.SelectContext(ctx, &out, query, walletID, from, to); err != nil {
		return nil, fmt.Errorf("list adjustments for wallet %s: %w", walletID, err)
	}
	return out, nil
}
