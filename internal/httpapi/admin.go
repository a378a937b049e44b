package httpapi

import (
	"fmt"
	"net/http"

	"impact-platform/internal/auth"
	"impact-platform/internal/ledger"
	"impact-platform/internal/pricing"
	"impact-platform/internal/reporting"
	"impact-platform/internal/wallet"
	"impact-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Admin endpoints. RBAC (admin or super_admin) is enforced by middleware in
// the route registration; handlers only need the actor for the audit trail.

func actorFrom(c *gin.Context) (id, role string) {
	id, _ = auth.UserID(c.Request.Context())
	role, _ = auth.Role(c.Request.Context())
	return id, role
}

// auditWarn keeps admin flows best-effort with respect to the operational
// audit trail: a failed append is logged, never surfaced.
func auditWarn(c *gin.Context, err error) {
	if err != nil {
		logger.FromGin(c).Warn("audit append failed", "error", err)
	}
}

// --- Pricing config ---

func (h Handlers) GetRate(c *gin.Context) {
	rate, err := h.Pricing.Rate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": pricing.KeyCurrentRate, "rate": rate})
}

type setRateRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

func (h Handlers) SetRate(c *gin.Context) {
	var req setRateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, role := actorFrom(c)

	old, err := h.Pricing.SetRate(c.Request.Context(), req.Rate, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	// The authoritative config audit row is written atomically by the
	// pricing store; this event is the operational trail.
	auditWarn(c, h.Audit.LogConfigChange(c.Request.Context(), actor, role, c.ClientIP(),
		pricing.KeyCurrentRate, fmt.Sprintf("rate %s -> %s", old, req.Rate)))

	c.JSON(http.StatusOK, gin.H{"key": pricing.KeyCurrentRate, "rate": req.Rate, "previous": old})
}

// --- Manual transactions ---

type adminTransactionRequest struct {
	UserID     string `json:"user_id" validate:"required_without=MerchantID"`
	MerchantID string `json:"merchant_id" validate:"required_without=UserID"`

	SKUID   string `json:"sku_id" validate:"required_without=SKUCode"`
	SKUCode string `json:"sku_code" validate:"required_without=SKUID"`

	Amount        decimal.Decimal `json:"amount"`
	OrderRef      string          `json:"order_ref"`
	PartnerID     string          `json:"partner_id"`
	Justification string          `json:"justification" validate:"required"`
}

func (h Handlers) AdminCreateTransaction(c *gin.Context) {
	var req adminTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, role := actorFrom(c)

	tr, err := h.Ledger.CreateManual(c.Request.Context(), ledger.ManualRequest{
		UserID:        req.UserID,
		MerchantID:    req.MerchantID,
		SKUID:         req.SKUID,
		SKUCode:       req.SKUCode,
		Amount:        req.Amount,
		OrderRef:      req.OrderRef,
		PartnerID:     req.PartnerID,
		Justification: req.Justification,
		Actor:         actor,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	auditWarn(c, h.Audit.LogManualTransaction(c.Request.Context(), actor, role, c.ClientIP(),
		tr.ID, req.Justification))

	c.JSON(http.StatusCreated, tr)
}

// --- Wallet adjustments ---

type adminAdjustRequest struct {
	UserID     string `json:"user_id" validate:"required_without=MerchantID"`
	MerchantID string `json:"merchant_id" validate:"required_without=UserID"`

	ImpactDelta decimal.Decimal `json:"impact_delta"`
	AmountDelta decimal.Decimal `json:"amount_delta"`
	Reason      string          `json:"reason" validate:"required"`
}

func (h Handlers) AdminAdjustWallet(c *gin.Context) {
	var req adminAdjustRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, role := actorFrom(c)

	holder := wallet.Holder{UserID: req.UserID, MerchantID: req.MerchantID}
	w, adj, err := h.Wallets.Adjust(c.Request.Context(), holder, wallet.AdjustRequest{
		ImpactDelta: req.ImpactDelta,
		AmountDelta: req.AmountDelta,
		Reason:      req.Reason,
		Actor:       actor,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	auditWarn(c, h.Audit.LogWalletAdjustment(c.Request.Context(), actor, role, c.ClientIP(), w.ID,
		req.Reason, fmt.Sprintf("adjustment_id=%s impact_delta=%s amount_delta=%s",
			adj.ID, req.ImpactDelta, req.AmountDelta)))

	c.JSON(http.StatusOK, gin.H{"wallet": w, "adjustment": adj})
}

// --- Gift card batches ---

type adminGiftBatchRequest struct {
	SKUID string `json:"sku_id" validate:"required"`
	Count int    `json:"count" validate:"required,gt=0"`
}

// AdminIssueGiftBatch mints a batch of codes. This response is the only
// place plaintext secrets ever leave the system.
func (h Handlers) AdminIssueGiftBatch(c *gin.Context) {
	var req adminGiftBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, role := actorFrom(c)

	batch, codes, err := h.GiftCards.IssueBatch(c.Request.Context(), req.SKUID, req.Count, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	auditWarn(c, h.Audit.LogGiftCardBatch(c.Request.Context(), actor, role, c.ClientIP(), batch.ID,
		fmt.Sprintf("sku_id=%s count=%d", req.SKUID, req.Count)))

	secrets := make([]string, 0, len(codes))
	for _, code := range codes {
		secrets = append(secrets, code.Code)
	}
	c.JSON(http.StatusCreated, gin.H{"batch": batch, "codes": secrets})
}

// --- Reports ---

func (h Handlers) AdminAdjustmentSummary(c *gin.Context) {
	rng, ok := timeRangeQuery(c)
	if !ok {
		return
	}
	sum, err := h.Reports.AdjustmentSummary(c.Request.Context(), reporting.AdjustmentSummaryRequest{
		WalletID: c.Query("wallet_id"),
		Range:    rng,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
