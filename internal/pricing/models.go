package pricing

import "time"

// Global config keys owned by this package. Keep stable; they are persisted
// and referenced by ops tooling.
const (
	// KeyCurrentRate holds the currency cost of one impact unit.
	KeyCurrentRate = "CURRENT_CSR_PRICE"

	// KeyCertifiedThreshold holds the lifetime-spend amount at which a
	// wallet becomes a certified asset. Absent or non-positive disables
	// certification.
	KeyCertifiedThreshold = "CERTIFIED_ASSET_THRESHOLD"
)

// ConfigAudit is the immutable record of one global config write. It is
// inserted in the same database transaction as the change itself; a failed
// audit insert aborts the change.
type ConfigAudit struct {
	ID        string    `json:"id" db:"id"`
	Key       string    `json:"key" db:"key"`
	OldValue  string    `json:"old_value" db:"old_value"`
	NewValue  string    `json:"new_value" db:"new_value"`
	Actor     string    `json:"actor" db:"actor"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
