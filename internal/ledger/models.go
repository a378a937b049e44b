package ledger

import (
	"time"

	"impact-platform/internal/wallet"

	"github.com/shopspring/decimal"
)

// Status is the payment status of a transaction.
//
// pending -> completed and pending -> failed are the only transitions;
// n/a never transitions (CLAIM and GIFT_CARD involve no processor).
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusNA        Status = "n/a"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusNA:
		return true
	}
	return false
}

// Terminal reports whether no transition out of s is defined.
func (s Status) Terminal() bool { return s != StatusPending }

// Transaction is one monetary-to-impact conversion. Amount, impact and the
// connect flag are immutable after creation; payment_status (plus
// wallet_credited and status_changed_at) are the only mutable fields.
//
// Holder semantics: at least one of user_id / merchant_id is set. The wallet
// credit goes to the user when present; a merchant id next to a user id is
// attribution only.
type Transaction struct {
	ID         string  `json:"id" db:"id"`
	UserID     *string `json:"user_id,omitempty" db:"user_id"`
	MerchantID *string `json:"merchant_id,omitempty" db:"merchant_id"`

	SKUID string `json:"sku_id" db:"sku_id"`
	// SKUCode is denormalized at creation for event payloads and exports.
	SKUCode string `json:"sku_code" db:"sku_code"`

	PartnerID *string `json:"partner_id,omitempty" db:"partner_id"`
	OrderRef  *string `json:"order_ref,omitempty" db:"order_ref"`

	// Amount is the currency amount (4 decimal places); Impact is the
	// credited impact quantity (2 decimal places).
	Amount decimal.Decimal `json:"amount" db:"amount"`
	Impact decimal.Decimal `json:"impact" db:"impact"`

	PaymentStatus Status  `json:"payment_status" db:"payment_status"`
	ProcessorRef  *string `json:"processor_ref,omitempty" db:"processor_ref"`
	GiftCodeID    *string `json:"gift_code_id,omitempty" db:"gift_code_id"`

	ConnectFlag bool `json:"connect_flag" db:"connect_flag"`

	// WalletCredited tracks whether this transaction's credit currently
	// sits in the wallet. CLAIM/GIFT_CARD/ALLOCATION set it at creation,
	// PAY on completion; a failed ALLOCATION clears it on reversal.
	WalletCredited bool `json:"wallet_credited" db:"wallet_credited"`

	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	StatusChangedAt time.Time `json:"status_changed_at" db:"status_changed_at"`
}

// Holder returns the wallet holder credited by this transaction.
func (t Transaction) Holder() wallet.Holder {
	if t.UserID != nil && *t.UserID != "" {
		return wallet.UserHolder(*t.UserID)
	}
	if t.MerchantID != nil && *t.MerchantID != "" {
		return wallet.MerchantHolder(*t.MerchantID)
	}
	return wallet.Holder{}
}

// CreateRequest creates a transaction through the normal flow. Exactly the
// fields the mode needs are read: Amount for PAY/ALLOCATION, GiftCode for
// GIFT_CARD, ProcessorRef for modes awaiting a processor callback.
type CreateRequest struct {
	UserID     string
	MerchantID string

	// SKUID or SKUCode resolves the SKU; SKUID wins when both are set.
	SKUID   string
	SKUCode string

	Amount       decimal.Decimal
	GiftCode     string
	ProcessorRef string
	PartnerID    string
	OrderRef     string
}

// ManualRequest is the administrative entry point: no gift code, no
// processor, immediate credit, mandatory justification.
type ManualRequest struct {
	UserID     string
	MerchantID string

	SKUID   string
	SKUCode string

	// Amount overrides the SKU price when positive; zero means "use the
	// SKU price".
	Amount decimal.Decimal

	PartnerID string
	OrderRef  string

	Justification string
	Actor         string
}
