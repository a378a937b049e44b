package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"impact-platform/internal/ledger"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_KeysByHolderAndCarriesEnvelope(t *testing.T) {
	w := &captureWriter{}
	p := NewPublisher(w, discardLogger())

	userID := "user-1"
	tr := ledger.Transaction{
		ID:            "tx-1",
		UserID:        &userID,
		SKUCode:       "BOTTLE_CLAIM",
		Amount:        decimal.RequireFromString("1.10"),
		Impact:        decimal.RequireFromString("10"),
		PaymentStatus: ledger.StatusNA,
	}
	p.TransactionCreated(context.Background(), tr)

	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	if got := string(w.msgs[0].Key); got != "user:user-1" {
		t.Fatalf("key = %q, want user:user-1", got)
	}

	var env Envelope
	if err := json.Unmarshal(w.msgs[0].Value, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != TypeTransactionCreated {
		t.Fatalf("type = %q, want %q", env.Type, TypeTransactionCreated)
	}
	if env.TransactionID != "tx-1" || env.SKUCode != "BOTTLE_CLAIM" {
		t.Fatalf("envelope = %+v", env)
	}
	if !env.Impact.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("impact = %s, want 10", env.Impact)
	}
	if env.PaymentStatus != string(ledger.StatusNA) {
		t.Fatalf("payment status = %q, want n/a", env.PaymentStatus)
	}
}

func TestPublisher_SwallowsBrokerErrors(t *testing.T) {
	w := &captureWriter{err: errors.New("broker down")}
	p := NewPublisher(w, discardLogger())

	merchantID := "merchant-1"
	p.TransactionCompleted(context.Background(), ledger.Transaction{
		ID:         "tx-2",
		MerchantID: &merchantID,
	})

	if len(w.msgs) != 0 {
		t.Fatalf("messages = %d, want 0", len(w.msgs))
	}
}

func TestPublisher_NilWriterIsDisabled(t *testing.T) {
	p := NewPublisher(nil, discardLogger())
	p.TransactionFailed(context.Background(), ledger.Transaction{ID: "tx-3"})
}
