package pricing

import (
	"context"
	"database/sql"
	"errors"

	"impact-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// NOTE: This store assumes the following tables exist:
// - global_config (key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at)
// - config_audit_log (id, key, old_value, new_value, actor, created_at), INSERT-only

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) GetValue(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM global_config WHERE key = $1`

	var v string
	if err := s.db.GetContext(ctx, &v, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrConfigNotFound
		}
		return "", err
	}
	return v, nil
}

func (s *PostgresStore) SetValue(ctx context.Context, key, value, actor string) (string, error) {
	var old string

	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		// Lock the key so the audit row records exactly the value being
		// replaced, even under concurrent writers.
		err := tx.GetContext(ctx, &old, `SELECT value FROM global_config WHERE key = $1 FOR UPDATE`, key)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		const upsert = `
INSERT INTO global_config (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
		if _, err := tx.ExecContext(ctx, upsert, key, value); err != nil {
			return err
		}

		// The audit insert failing rolls the whole write back.
		const appendAudit = `
INSERT INTO config_audit_log (id, key, old_value, new_value, actor, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
`
		if _, err := tx.ExecContext(ctx, appendAudit, uuid.NewString(), key, old, value, actor); err != nil {
			return err
		}
		return nil
	})

	return old, err
}
