package giftcard

import "time"

// Code is one secret gift code. Lifecycle: issued in a batch (unredeemed),
// redeemed exactly once, terminal. The redeemed flag never transitions back.
type Code struct {
	ID      string `json:"id" db:"id"`
	Code    string `json:"code" db:"code"`
	SKUID   string `json:"sku_id" db:"sku_id"`
	BatchID string `json:"batch_id" db:"batch_id"`

	Redeemed bool `json:"redeemed" db:"redeemed"`

	// RedeemedBy is the canonical holder ref (wallet.Holder.Ref) of the
	// redeemer; RedeemedTx is the transaction that consumed the code.
	RedeemedBy string     `json:"redeemed_by,omitempty" db:"redeemed_by"`
	RedeemedTx string     `json:"redeemed_tx,omitempty" db:"redeemed_tx"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty" db:"redeemed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Batch records one administrative issuance run.
type Batch struct {
	ID        string    `json:"id" db:"id"`
	SKUID     string    `json:"sku_id" db:"sku_id"`
	CodeCount int       `json:"code_count" db:"code_count"`
	IssuedBy  string    `json:"issued_by" db:"issued_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
