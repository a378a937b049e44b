package reporting

import (
	"time"

	"impact-platform/internal/wallet"

	"github.com/shopspring/decimal"
)

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ImpactSummaryRequest requests aggregated transaction metrics for one
// holder. The holder is required; summaries never cross holders.

type ImpactSummaryRequest struct {
	Holder wallet.Holder `json:"holder"`
	Range  TimeRange     `json:"range"`
}

type ImpactSummary struct {
	Holder string `json:"holder"`

	TotalTransactions int `json:"total_transactions"`
	ImmediateCount    int `json:"immediate_count"` // n/a: CLAIM, GIFT_CARD, manual
	PendingCount      int `json:"pending_count"`
	CompletedCount    int `json:"completed_count"`
	FailedCount       int `json:"failed_count"`
	ConnectFlagged    int `json:"connect_flagged"`

	TotalAmount    decimal.Decimal `json:"total_amount"`
	CreditedImpact decimal.Decimal `json:"credited_impact"`
	PendingImpact  decimal.Decimal `json:"pending_impact"`
}

// AdjustmentSummaryRequest requests aggregated manual-adjustment metrics
// for one wallet.

type AdjustmentSummaryRequest struct {
	WalletID string    `json:"wallet_id"`
	Range    TimeRange `json:"range"`
}

type AdjustmentSummary struct {
	WalletID string `json:"wallet_id"`

	Adjustments    int             `json:"adjustments"`
	NetImpactDelta decimal.Decimal `json:"net_impact_delta"`
	NetAmountDelta decimal.Decimal `json:"net_amount_delta"`
}
