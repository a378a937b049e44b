package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// SKU is a catalog item a transaction is created against. The engine reads
// SKUs; catalog curation happens in a separate back office.
type SKU struct {
	ID   string `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`

	// Mode determines the acquisition flow for transactions on this SKU.
	Mode Mode `json:"mode" db:"mode"`

	// Price is the currency amount recorded for CLAIM and GIFT_CARD
	// transactions. PAY and ALLOCATION take the amount from the request.
	Price decimal.Decimal `json:"price" db:"price"`

	// Multiplier scales the computed impact. Grandfathered SKUs keep their
	// historical values; new SKUs default to 1.0.
	Multiplier decimal.Decimal `json:"multiplier" db:"multiplier"`

	// ConnectThreshold is the minimum transaction amount that sets the
	// connect flag. NULL or non-positive disables the flag for this SKU.
	ConnectThreshold decimal.NullDecimal `json:"connect_threshold,omitempty" db:"connect_threshold"`

	Active bool `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Mode is the acquisition mode. Keep values stable; they are persisted.
type Mode string

const (
	ModeClaim      Mode = "CLAIM"
	ModePay        Mode = "PAY"
	ModeGiftCard   Mode = "GIFT_CARD"
	ModeAllocation Mode = "ALLOCATION"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeClaim, ModePay, ModeGiftCard, ModeAllocation:
		return true
	}
	return false
}
