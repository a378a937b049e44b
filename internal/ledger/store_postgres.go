package ledger

// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE transactions (
//	    id                TEXT PRIMARY KEY,
//	    user_id           TEXT,
//	    merchant_id       TEXT,
//	    sku_id            TEXT NOT NULL REFERENCES skus (id),
//	    sku_code          TEXT NOT NULL,
//	    partner_id        TEXT,
//	    order_ref         TEXT,
//	    amount            NUMERIC(18,4) NOT NULL,
//	    impact            NUMERIC(18,2) NOT NULL,
//	    payment_status    TEXT NOT NULL,
//	    processor_ref     TEXT,
//	    gift_code_id      TEXT REFERENCES gift_card_codes (id),
//	    connect_flag      BOOLEAN NOT NULL DEFAULT FALSE,
//	    wallet_credited   BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at        TIMESTAMPTZ NOT NULL,
//	    status_changed_at TIMESTAMPTZ NOT NULL,
//	    CHECK (user_id IS NOT NULL OR merchant_id IS NOT NULL)
//	);
//	CREATE UNIQUE INDEX transactions_processor_ref_key
//	    ON transactions (processor_ref) WHERE processor_ref IS NOT NULL;
//	CREATE INDEX transactions_user_created_idx
//	    ON transactions (user_id, created_at DESC) WHERE user_id IS NOT NULL;
//	CREATE INDEX transactions_merchant_created_idx
//	    ON transactions (merchant_id, created_at DESC)
//	    WHERE merchant_id IS NOT NULL AND user_id IS NULL;
//
// gift_card_codes.redeemed_tx carries no foreign key: the redemption is
// written before the transaction row, inside the same unit of work.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"impact-platform/internal/catalog"
	"impact-platform/internal/giftcard"
	"impact-platform/internal/wallet"
	"impact-platform/pkg/utils"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const txColumns = `id, user_id, merchant_id, sku_id, sku_code, partner_id, order_ref,
       amount, impact, payment_status, processor_ref, gift_code_id,
       connect_flag, wallet_credited, created_at, status_changed_at`

// PostgresStore is the production Store.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

func (s *PostgresStore) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return getTransaction(ctx, s.db, id)
}

func (s *PostgresStore) GetTransactionByProcessorRef(ctx context.Context, ref string) (Transaction, error) {
	return getTransactionByProcessorRef(ctx, s.db, ref)
}

func (s *PostgresStore) ListTransactionsForHolder(ctx context.Context, h wallet.Holder, limit int) ([]Transaction, error) {
	clause, arg := holderClause(h)
	query := `SELECT ` + txColumns + ` FROM transactions WHERE ` + clause +
		` ORDER BY created_at DESC, id DESC LIMIT $2`

	txs := []Transaction{}
	if err := sqlx.SelectContext(ctx, s.db, &txs, query, arg, limit); err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", h.Ref(), err)
	}
	return txs, nil
}

// postgresTx composes the domain SQL helpers on one *sqlx.Tx so a ledger
// unit of work spans catalog reads, gift-code redemption, the transaction
// row and the wallet delta.
type postgresTx struct {
	tx *sqlx.Tx
}

func (t *postgresTx) Commit() error { return t.tx.Commit() }

func (t *postgresTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (t *postgresTx) FindSKUByID(ctx context.Context, id string) (catalog.SKU, error) {
	return catalog.FindSKUByID(ctx, t.tx, id)
}

func (t *postgresTx) FindSKUByCode(ctx context.Context, code string) (catalog.SKU, error) {
	return catalog.FindSKUByCode(ctx, t.tx, code)
}

func (t *postgresTx) RedeemGiftCode(ctx context.Context, code, redeemedBy, txID string) (giftcard.Code, error) {
	return giftcard.RedeemCode(ctx, t.tx, code, redeemedBy, txID, time.Now().UTC())
}

func (t *postgresTx) InsertTransaction(ctx context.Context, tr Transaction) error {
	const ins = `
INSERT INTO transactions (` + txColumns + `)
VALUES (:id, :user_id, :merchant_id, :sku_id, :sku_code, :partner_id, :order_ref,
        :amount, :impact, :payment_status, :processor_ref, :gift_code_id,
        :connect_flag, :wallet_credited, :created_at, :status_changed_at)`

	if _, err := t.tx.NamedExecContext(ctx, ins, tr); err != nil {
		return fmt.Errorf("insert transaction %s: %w", tr.ID, utils.MapConstraintErr(err))
	}
	return nil
}

func (t *postgresTx) GetTransactionByProcessorRef(ctx context.Context, ref string) (Transaction, error) {
	return getTransactionByProcessorRef(ctx, t.tx, ref)
}

func (t *postgresTx) TransitionStatus(ctx context.Context, id string, target Status, walletCredited bool, at time.Time) (bool, error) {
	const upd = `
UPDATE transactions
SET payment_status = $2, wallet_credited = $3, status_changed_at = $4
WHERE id = $1 AND payment_status = 'pending'`

	res, err := t.tx.ExecContext(ctx, upd, id, target, walletCredited, at)
	if err != nil {
		return false, fmt.Errorf("transition transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *postgresTx) CreditWallet(ctx context.Context, h wallet.Holder, impact, amount decimal.Decimal, threshold decimal.NullDecimal) (wallet.Wallet, error) {
	return wallet.Credit(ctx, t.tx, h, impact, amount, threshold)
}

func (t *postgresTx) ApplyWalletDelta(ctx context.Context, h wallet.Holder, d wallet.Delta, threshold decimal.NullDecimal) (wallet.Wallet, error) {
	return wallet.ApplyWalletDelta(ctx, t.tx, h, d, threshold)
}

func getTransaction(ctx context.Context, q sqlx.ExtContext, id string) (Transaction, error) {
	var tr Transaction
	err := sqlx.GetContext(ctx, q, &tr, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tr, nil
}

func getTransactionByProcessorRef(ctx context.Context, q sqlx.ExtContext, ref string) (Transaction, error) {
	var tr Transaction
	err := sqlx.GetContext(ctx, q, &tr, `SELECT `+txColumns+` FROM transactions WHERE processor_ref = $1`, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("get transaction by processor ref: %w", err)
	}
	return tr, nil
}

// holderClause filters transactions to those credited to h: user-held rows
// carry the user id, merchant-held rows carry the merchant id and no user.
func holderClause(h wallet.Holder) (string, string) {
	if h.UserID != "" {
		return `user_id = $1`, h.UserID
	}
	return `merchant_id = $1 AND user_id IS NULL`, h.MerchantID
}
