package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// NOTE: This repository assumes the following tables exist:
// - wallets (user_id / merchant_id nullable with a CHECK that exactly one is
//   set; partial unique indexes on each holder column)
// - wallet_adjustments (append-only)
//
// All helpers take sqlx.ExtContext so they run equally on *sqlx.DB and on an
// enclosing *sqlx.Tx; the ledger composes them inside its unit of work.

const walletColumns = `id, user_id, merchant_id, total_accumulated, total_redeemed, current_balance, total_amount_spent, certified_asset, created_at, updated_at`

func holderFilter(h Holder) (clause string, arg string) {
	if h.UserID != "" {
		return "user_id = $1", h.UserID
	}
	return "merchant_id = $1", h.MerchantID
}

func GetWallet(ctx context.Context, q sqlx.ExtContext, h Holder) (Wallet, error) {
	if err := h.Validate(); err != nil {
		return Wallet{}, err
	}
	clause, arg := holderFilter(h)

	var w Wallet
	if err := sqlx.GetContext(ctx, q, &w, `SELECT `+walletColumns+` FROM wallets WHERE `+clause, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	return w, nil
}

// GetOrCreateWallet creates the holder's wallet on first use. Losing the
// insert race to a concurrent creator is fine; the winner's row is read back.
func GetOrCreateWallet(ctx context.Context, q sqlx.ExtContext, h Holder) (Wallet, error) {
	if err := h.Validate(); err != nil {
		return Wallet{}, err
	}

	const ins = `
INSERT INTO wallets (
  id, user_id, merchant_id,
  total_accumulated, total_redeemed, current_balance, total_amount_spent, certified_asset,
  created_at, updated_at
) VALUES (
  $1, $2, $3, 0, 0, 0, 0, FALSE, NOW(), NOW()
)
ON CONFLICT DO NOTHING
`
	if _, err := q.ExecContext(ctx, ins, uuid.NewString(), nullable(h.UserID), nullable(h.MerchantID)); err != nil {
		return Wallet{}, err
	}
	return GetWallet(ctx, q, h)
}

// ApplyWalletDelta applies a signed delta in one UPDATE statement. Derived
// fields are recomputed inside the statement, so concurrent mutations of the
// same wallet serialize on the row without application-held locks.
func ApplyWalletDelta(ctx context.Context, q sqlx.ExtContext, h Holder, d Delta, threshold decimal.NullDecimal) (Wallet, error) {
	if err := h.Validate(); err != nil {
		return Wallet{}, err
	}
	clause, arg := holderFilter(h)

	query := `
UPDATE wallets
SET total_accumulated  = total_accumulated + $2,
    total_redeemed     = total_redeemed + $3,
    total_amount_spent = total_amount_spent + $4,
    current_balance    = total_accumulated + $2 - (total_redeemed + $3),
    certified_asset    = CASE WHEN COALESCE($5::numeric, 0) > 0
                              THEN total_amount_spent + $4 >= $5::numeric
                              ELSE certified_asset END,
    updated_at         = NOW()
WHERE ` + clause + `
RETURNING ` + walletColumns

	var w Wallet
	if err := sqlx.GetContext(ctx, q, &w, query, arg, d.Accumulated, d.Redeemed, d.Spent, threshold); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	return w, nil
}

// ApplyWalletDeltaGuarded is ApplyWalletDelta with a balance floor: the row
// only matches while the resulting balance stays non-negative. Zero rows on
// an existing wallet means the guard rejected the mutation.
func ApplyWalletDeltaGuarded(ctx context.Context, q sqlx.ExtContext, h Holder, d Delta, threshold decimal.NullDecimal) (Wallet, error) {
	if err := h.Validate(); err != nil {
		return Wallet{}, err
	}
	clause, arg := holderFilter(h)

	query := `
UPDATE wallets
SET total_accumulated  = total_accumulated + $2,
    total_redeemed     = total_redeemed + $3,
    total_amount_spent = total_amount_spent + $4,
    current_balance    = total_accumulated + $2 - (total_redeemed + $3),
    certified_asset    = CASE WHEN COALESCE($5::numeric, 0) > 0
                              THEN total_amount_spent + $4 >= $5::numeric
                              ELSE certified_asset END,
    updated_at         = NOW()
WHERE ` + clause + `
  AND total_accumulated + $2 - (total_redeemed + $3) >= 0
RETURNING ` + walletColumns

	var w Wallet
	err := sqlx.GetContext(ctx, q, &w, query, arg, d.Accumulated, d.Redeemed, d.Spent, threshold)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Wallet{}, err
	}

	// Zero rows: either the wallet does not exist or the guard fired.
	if _, gerr := GetWallet(ctx, q, h); gerr != nil {
		return Wallet{}, gerr
	}
	return Wallet{}, ErrInsufficientBalance
}

// Credit applies a transaction credit, creating the wallet on first use.
func Credit(ctx context.Context, q sqlx.ExtContext, h Holder, impact, amount decimal.Decimal, threshold decimal.NullDecimal) (Wallet, error) {
	if _, err := GetOrCreateWallet(ctx, q, h); err != nil {
		return Wallet{}, err
	}
	return ApplyWalletDelta(ctx, q, h, CreditDelta(impact, amount), threshold)
}

// Debit spends impact from an existing wallet. The balance can never go
// negative through this path.
func Debit(ctx context.Context, q sqlx.ExtContext, h Holder, impact decimal.Decimal, threshold decimal.NullDecimal) (Wallet, error) {
	if !impact.IsPositive() {
		return Wallet{}, ErrInvalidAdjustment
	}
	return ApplyWalletDeltaGuarded(ctx, q, h, DebitDelta(impact), threshold)
}

func InsertAdjustment(ctx context.Context, q sqlx.ExtContext, a Adjustment) error {
	const ins = `
INSERT INTO wallet_adjustments (id, wallet_id, impact_delta, amount_delta, reason, actor, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := q.ExecContext(ctx, ins, a.ID, a.WalletID, a.ImpactDelta, a.AmountDelta, a.Reason, a.Actor, a.CreatedAt)
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
