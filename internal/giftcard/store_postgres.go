package giftcard

import (
	"context"

	"impact-platform/pkg/utils"

	"github.com/jmoiron/sqlx"
)

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore { return &PostgresStore{db: db} }

// InsertBatch writes the batch row and all of its codes in one transaction.
// A duplicate generated code surfaces as utils.ErrConstraintViolation and
// nothing persists.
func (s *PostgresStore) InsertBatch(ctx context.Context, b Batch, codes []Code) error {
	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		const insBatch = `
INSERT INTO gift_card_batches (id, sku_id, code_count, issued_by, created_at)
VALUES (:id, :sku_id, :code_count, :issued_by, :created_at)
`
		if _, err := tx.NamedExecContext(ctx, insBatch, b); err != nil {
			return err
		}

		const insCodes = `
INSERT INTO gift_card_codes (id, code, sku_id, batch_id, redeemed, redeemed_by, redeemed_tx, redeemed_at, created_at)
VALUES (:id, :code, :sku_id, :batch_id, :redeemed, :redeemed_by, :redeemed_tx, :redeemed_at, :created_at)
`
		_, err := tx.NamedExecContext(ctx, insCodes, codes)
		return err
	})
	return utils.MapConstraintErr(err)
}

func (s *PostgresStore) FindCode(ctx context.Context, code string) (Code, error) {
	return FindCodeSQL(ctx, s.db, code)
}
