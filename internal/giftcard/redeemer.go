package giftcard

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound        = errors.New("gift code not found")
	ErrAlreadyRedeemed = errors.New("gift code already redeemed")
)

// NOTE: This redeemer assumes the following tables exist:
// - gift_card_codes (code unique)
// - gift_card_batches

const codeColumns = `id, code, sku_id, batch_id, redeemed, redeemed_by, redeemed_tx, redeemed_at, created_at`

// RedeemCode flips one unredeemed code to redeemed and binds it to the
// consuming transaction. The WHERE clause carries the entire concurrency
// story: of N concurrent redeemers exactly one matches the unredeemed row;
// the rest see zero rows and get ErrAlreadyRedeemed.
//
// It runs on the caller's executor so a rollback of the enclosing unit also
// releases the code.
func RedeemCode(ctx context.Context, q sqlx.ExtContext, code, redeemedBy, txID string, now time.Time) (Code, error) {
	const cas = `
UPDATE gift_card_codes
SET redeemed = TRUE, redeemed_by = $2, redeemed_tx = $3, redeemed_at = $4
WHERE code = $1 AND redeemed = FALSE
RETURNING ` + codeColumns

	var c Code
	err := sqlx.GetContext(ctx, q, &c, cas, code, redeemedBy, txID, now)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Code{}, err
	}

	// Zero rows: the code is either unknown or already burned.
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS (SELECT 1 FROM gift_card_codes WHERE code = $1)`, code); err != nil {
		return Code{}, err
	}
	if !exists {
		return Code{}, ErrNotFound
	}
	return Code{}, ErrAlreadyRedeemed
}

// FindCodeSQL loads one code on the caller's executor.
func FindCodeSQL(ctx context.Context, q sqlx.ExtContext, code string) (Code, error) {
	var c Code
	if err := sqlx.GetContext(ctx, q, &c, `SELECT `+codeColumns+` FROM gift_card_codes WHERE code = $1`, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Code{}, ErrNotFound
		}
		return Code{}, err
	}
	return c, nil
}
