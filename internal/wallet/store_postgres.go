package wallet

import (
	"context"

	"impact-platform/pkg/utils"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Get(ctx context.Context, h Holder) (Wallet, error) {
	return GetWallet(ctx, s.db, h)
}

// Adjust writes the correction record and applies its delta in one
// transaction; neither persists without the other.
func (s *PostgresStore) Adjust(ctx context.Context, h Holder, a Adjustment, threshold decimal.NullDecimal) (Wallet, error) {
	var out Wallet

	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		w, err := GetOrCreateWallet(ctx, tx, h)
		if err != nil {
			return err
		}
		a.WalletID = w.ID
		if err := InsertAdjustment(ctx, tx, a); err != nil {
			return err
		}
		out, err = ApplyWalletDelta(ctx, tx, h, a.delta(), threshold)
		return err
	})

	return out, err
}
