package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapConstraintErr_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "transactions_processor_ref_key"}

	err := MapConstraintErr(fmt.Errorf("insert transaction: %w", pgErr))
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestMapConstraintErr_PassesThroughOtherErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"} // foreign key, not unique
	if err := MapConstraintErr(pgErr); errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected pass-through, got %v", err)
	}

	plain := errors.New("connection reset")
	if err := MapConstraintErr(plain); err != plain {
		t.Fatalf("expected identical error back, got %v", err)
	}

	if err := MapConstraintErr(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns <= 0 || c.MaxIdleConns <= 0 {
		t.Fatalf("expected pool defaults, got %+v", c)
	}
	if c.PingTimeout <= 0 {
		t.Fatalf("expected ping timeout default, got %v", c.PingTimeout)
	}
}
