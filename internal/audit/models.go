package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block critical flows on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorID is the authenticated admin or service account causing the event.
	ActorID string `json:"actor_id" db:"actor_id"`
	// ActorRole may include hidden roles.
	ActorRole string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress should capture the original client IP when available.
	// Prefer X-Forwarded-For processing at the edge; store the resolved client IP here.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers (optional, depending on the event type).
	TransactionID string `json:"transaction_id,omitempty" db:"transaction_id"`
	WalletID      string `json:"wallet_id,omitempty" db:"wallet_id"`
	BatchID       string `json:"batch_id,omitempty" db:"batch_id"`
	ConfigKey     string `json:"config_key,omitempty" db:"config_key"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeManualTransaction EventType = "manual_transaction"
	EventTypeWalletAdjustment  EventType = "wallet_adjustment"
	EventTypeGiftCardBatch     EventType = "gift_card_batch"
	EventTypeConfigChange      EventType = "config_change"
)
