package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresTypeAndActor(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeWalletAdjustment}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{ActorID: "admin-1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogWalletAdjustment(context.Background(), "admin-1", "super_admin", "1.2.3.4", "wallet-1", "support refund", "{}"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
	if evs[0].Type != EventTypeWalletAdjustment {
		t.Fatalf("expected wallet_adjustment")
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned")
	}
}

func TestService_LogManualTransactionCarriesJustification(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogManualTransaction(context.Background(), "admin-1", "admin", "", "tx-9", "partner beach cleanup event"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 || evs[0].TransactionID != "tx-9" {
		t.Fatalf("expected transaction target recorded")
	}
	if evs[0].Message != "partner beach cleanup event" {
		t.Fatalf("expected justification in message")
	}
}
