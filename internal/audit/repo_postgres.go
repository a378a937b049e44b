package audit

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// PostgresRepo appends events to the audit_events table.
//
// NOTE: audit_events carries an INSERT-only policy; this repo intentionally
// exposes no read path. Ops tooling queries the table directly.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, type, actor_id, actor_role, ip_address,
  transaction_id, wallet_id, batch_id, config_key,
  message, metadata, created_at
) VALUES (
  :id, :type, :actor_id, :actor_role, :ip_address,
  :transaction_id, :wallet_id, :batch_id, :config_key,
  :message, :metadata, :created_at
)
`
	_, err := r.db.NamedExecContext(ctx, q, e)
	return err
}
