package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the per-holder balance projection.
//
// Invariants:
// - exactly one of user_id / merchant_id is set (CHECK constraint)
// - current_balance == total_accumulated - total_redeemed after every mutation
// - mutations go through the delta primitive; no field-level overwrites
type Wallet struct {
	ID         string  `json:"id" db:"id"`
	UserID     *string `json:"user_id,omitempty" db:"user_id"`
	MerchantID *string `json:"merchant_id,omitempty" db:"merchant_id"`

	// TotalAccumulated is the lifetime impact credited to the holder, in
	// impact units.
	TotalAccumulated decimal.Decimal `json:"total_accumulated" db:"total_accumulated"`

	// TotalRedeemed is the lifetime impact spent by the holder.
	TotalRedeemed decimal.Decimal `json:"total_redeemed" db:"total_redeemed"`

	// CurrentBalance is always accumulated minus redeemed, recomputed inside
	// the same atomic step as the delta that changed either side.
	CurrentBalance decimal.Decimal `json:"current_balance" db:"current_balance"`

	// TotalAmountSpent is the lifetime currency spent, in currency units.
	TotalAmountSpent decimal.Decimal `json:"total_amount_spent" db:"total_amount_spent"`

	// CertifiedAsset flips when TotalAmountSpent reaches the configured
	// threshold. Recomputed with every mutation while a positive threshold
	// is configured; frozen when certification is disabled.
	CertifiedAsset bool `json:"certified_asset" db:"certified_asset"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (w Wallet) Holder() Holder {
	var h Holder
	if w.UserID != nil {
		h.UserID = *w.UserID
	}
	if w.MerchantID != nil {
		h.MerchantID = *w.MerchantID
	}
	return h
}

// Delta is a signed mutation of the wallet projections. Derived fields
// (current_balance, certified_asset) are recomputed inside the same atomic
// step, never by callers.
type Delta struct {
	Accumulated decimal.Decimal
	Redeemed    decimal.Decimal
	Spent       decimal.Decimal
}

// CreditDelta records impact earned and currency spent by a transaction.
func CreditDelta(impact, amount decimal.Decimal) Delta {
	return Delta{Accumulated: impact, Spent: amount}
}

// DebitDelta records impact spent by the holder.
func DebitDelta(impact decimal.Decimal) Delta {
	return Delta{Redeemed: impact}
}

// ReversalDelta undoes a prior credit when its payment ultimately fails.
func ReversalDelta(impact, amount decimal.Decimal) Delta {
	return Delta{Accumulated: impact.Neg(), Spent: amount.Neg()}
}

// Apply returns the wallet with the delta applied and derived fields
// recomputed. The Postgres store mirrors this computation inside a single
// UPDATE statement; keep the two in sync.
func (w Wallet) Apply(d Delta, threshold decimal.NullDecimal, now time.Time) Wallet {
	w.TotalAccumulated = w.TotalAccumulated.Add(d.Accumulated)
	w.TotalRedeemed = w.TotalRedeemed.Add(d.Redeemed)
	w.TotalAmountSpent = w.TotalAmountSpent.Add(d.Spent)
	w.CurrentBalance = w.TotalAccumulated.Sub(w.TotalRedeemed)
	if threshold.Valid && threshold.Decimal.IsPositive() {
		w.CertifiedAsset = w.TotalAmountSpent.GreaterThanOrEqual(threshold.Decimal)
	}
	w.UpdatedAt = now
	return w
}

// Adjustment is an append-only manual correction record. It must apply
// through the same delta primitive as transaction-driven credits, never a
// direct field overwrite.
type Adjustment struct {
	ID       string `json:"id" db:"id"`
	WalletID string `json:"wallet_id" db:"wallet_id"`

	// ImpactDelta applies (signed) to total_accumulated; AmountDelta applies
	// (signed) to total_amount_spent. Corrections may decrease both, which
	// is the one sanctioned exception to their monotonicity.
	ImpactDelta decimal.Decimal `json:"impact_delta" db:"impact_delta"`
	AmountDelta decimal.Decimal `json:"amount_delta" db:"amount_delta"`

	Reason string `json:"reason" db:"reason"`
	Actor  string `json:"actor" db:"actor"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (a Adjustment) delta() Delta {
	return Delta{Accumulated: a.ImpactDelta, Spent: a.AmountDelta}
}
