package httpapi

import (
	"net/http"
	"time"

	"impact-platform/internal/audit"
	"impact-platform/internal/auth"
	"impact-platform/internal/giftcard"
	"impact-platform/internal/ledger"
	"impact-platform/internal/pricing"
	"impact-platform/internal/rbac"
	"impact-platform/internal/reporting"
	"impact-platform/internal/wallet"
	"impact-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Ledger    *ledger.Manager
	Wallets   *wallet.Service
	Pricing   *pricing.Oracle
	GiftCards *giftcard.Issuer
	Reports   *reporting.Service
	Audit     *audit.Service

	// DB enables the readiness probe; nil keeps /healthz static.
	DB *sqlx.DB
}

var validate = validator.New()

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	if h.DB != nil {
		if err := utils.HealthCheck(c.Request.Context(), h.DB, 2*time.Second); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- Auth ---

type loginRequest struct {
	UserID     string `json:"user_id"`
	MerchantID string `json:"merchant_id"`
	Role       string `json:"role" validate:"required"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), auth.Identity{
		UserID:     req.UserID,
		MerchantID: req.MerchantID,
		Role:       req.Role,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Payment processor webhook ---

type paymentWebhookRequest struct {
	ProcessorRef string `json:"processor_ref" validate:"required"`
	Status       string `json:"status" validate:"required"`
}

// PaymentWebhook applies a processor callback. Replays of an
// already-applied terminal status return 200 with the stored transaction.
//
// NOTE: Signature verification belongs to the processor-facing proxy in
// production deployments.
func (h Handlers) PaymentWebhook(c *gin.Context) {
	var req paymentWebhookRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tr, err := h.Ledger.ApplyProcessorEvent(c.Request.Context(), req.ProcessorRef, ledger.Status(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

// --- Transactions ---

type createTransactionRequest struct {
	SKUID   string `json:"sku_id" validate:"required_without=SKUCode"`
	SKUCode string `json:"sku_code" validate:"required_without=SKUID"`

	Amount       decimal.Decimal `json:"amount"`
	GiftCode     string          `json:"gift_code"`
	ProcessorRef string          `json:"processor_ref"`
	OrderRef     string          `json:"order_ref"`
	PartnerID    string          `json:"partner_id"`
}

func (h Handlers) CreateTransaction(c *gin.Context) {
	caller, err := auth.CallerIdentity(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "holder identity required"})
		return
	}
	var req createTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	tr, err := h.Ledger.Create(c.Request.Context(), ledger.CreateRequest{
		UserID:       caller.UserID,
		MerchantID:   caller.MerchantID,
		SKUID:        req.SKUID,
		SKUCode:      req.SKUCode,
		Amount:       req.Amount,
		GiftCode:     req.GiftCode,
		ProcessorRef: req.ProcessorRef,
		OrderRef:     req.OrderRef,
		PartnerID:    req.PartnerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tr)
}

func (h Handlers) GetTransaction(c *gin.Context) {
	tr, err := h.Ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	caller, err := auth.CallerIdentity(c.Request.Context())
	if err != nil || !mayReadTransaction(caller, tr) {
		// Hide foreign transactions rather than acknowledging them.
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": ledger.ErrNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, tr)
}

// mayReadTransaction: privileged roles read everything, holders read their
// own rows only.
func mayReadTransaction(caller auth.Identity, tr ledger.Transaction) bool {
	switch caller.Role {
	case rbac.RoleAdmin, rbac.RoleSuperAdmin, rbac.RolePartnerAPI:
		return true
	}
	return tr.Holder().Ref() == callerHolder(caller).Ref()
}

// --- Wallet ---

func (h Handlers) GetWallet(c *gin.Context) {
	holder, ok := requireHolder(c)
	if !ok {
		return
	}
	w, err := h.Wallets.Get(c.Request.Context(), holder)
	if err != nil {
		// Wallets materialize on first credit; until then the holder's
		// wallet is logically empty.
		if respondEmptyWallet(c, holder, err) {
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h Handlers) ListWalletTransactions(c *gin.Context) {
	holder, ok := requireHolder(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	txs, err := h.Ledger.ListForHolder(c.Request.Context(), holder, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (h Handlers) WalletSummary(c *gin.Context) {
	holder, ok := requireHolder(c)
	if !ok {
		return
	}
	rng, ok := timeRangeQuery(c)
	if !ok {
		return
	}
	sum, err := h.Reports.ImpactSummary(c.Request.Context(), reporting.ImpactSummaryRequest{
		Holder: holder,
		Range:  rng,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// --- Gift cards ---

type redeemGiftCardRequest struct {
	Code string `json:"code" validate:"required"`
}

// RedeemGiftCard is the GIFT_CARD-mode transaction shortcut: the code names
// its SKU, so the caller only supplies the secret.
func (h Handlers) RedeemGiftCard(c *gin.Context) {
	holder, ok := requireHolder(c)
	if !ok {
		return
	}
	var req redeemGiftCardRequest
	if !bindAndValidate(c, &req) {
		return
	}

	code, err := h.GiftCards.FindCode(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	tr, err := h.Ledger.Create(c.Request.Context(), ledger.CreateRequest{
		UserID:     holder.UserID,
		MerchantID: holder.MerchantID,
		SKUID:      code.SKUID,
		GiftCode:   req.Code,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tr)
}
