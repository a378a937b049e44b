package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// NOTE: This repository assumes the following table exists:
// - skus (read-only to the engine)

var ErrSKUNotFound = errors.New("sku not found")

// Repository abstracts catalog reads. The engine never writes SKUs.
type Repository interface {
	FindByID(ctx context.Context, id string) (SKU, error)
	FindByCode(ctx context.Context, code string) (SKU, error)
}

const skuColumns = `id, code, name, mode, price, multiplier, connect_threshold, active, created_at, updated_at`

// FindSKUByID loads one SKU on the caller's executor so lookups can run
// inside an enclosing ledger transaction.
func FindSKUByID(ctx context.Context, q sqlx.ExtContext, id string) (SKU, error) {
	const query = `SELECT ` + skuColumns + ` FROM skus WHERE id = $1`

	var s SKU
	if err := sqlx.GetContext(ctx, q, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SKU{}, ErrSKUNotFound
		}
		return SKU{}, err
	}
	return s, nil
}

func FindSKUByCode(ctx context.Context, q sqlx.ExtContext, code string) (SKU, error) {
	const query = `SELECT ` + skuColumns + ` FROM skus WHERE code = $1`

	var s SKU
	if err := sqlx.GetContext(ctx, q, &s, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SKU{}, ErrSKUNotFound
		}
		return SKU{}, err
	}
	return s, nil
}

// PostgresRepo serves catalog reads outside a ledger transaction.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (SKU, error) {
	return FindSKUByID(ctx, r.db, id)
}

func (r *PostgresRepo) FindByCode(ctx context.Context, code string) (SKU, error) {
	return FindSKUByCode(ctx, r.db, code)
}
