package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"impact-platform/internal/auth"
	"impact-platform/internal/catalog"
	"impact-platform/internal/giftcard"
	"impact-platform/internal/ledger"
	"impact-platform/internal/pricing"
	"impact-platform/internal/reporting"
	"impact-platform/internal/wallet"
	"impact-platform/pkg/logger"
	"impact-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps the domain error taxonomy onto HTTP statuses:
//
//	not found            -> 404
//	already redeemed     -> 409
//	invalid transition   -> 409
//	constraint violation -> 409
//	invalid value        -> 422
//	insufficient balance -> 422
//	validation           -> 400
//
// Everything else is a 500 and gets logged; sentinel messages are safe to
// return verbatim.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, wallet.ErrNotFound),
		errors.Is(err, catalog.ErrSKUNotFound),
		errors.Is(err, giftcard.ErrNotFound),
		errors.Is(err, pricing.ErrConfigNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, giftcard.ErrAlreadyRedeemed),
		errors.Is(err, ledger.ErrInvalidTransition),
		errors.Is(err, utils.ErrConstraintViolation):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, ledger.ErrInvalidValue),
		errors.Is(err, pricing.ErrInvalidValue),
		errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, wallet.ErrInvalidAdjustment):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, wallet.ErrInvalidHolder),
		errors.Is(err, giftcard.ErrInvalidBatch),
		errors.Is(err, giftcard.ErrNotGiftSKU),
		errors.Is(err, reporting.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		logger.FromGin(c).Error("request failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	if err := validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("validation failed: %v", err)})
		return false
	}
	return true
}

// requireHolder resolves the caller's wallet holder. The rbac middleware
// has already rejected anonymous requests; this keeps handlers honest when
// wired differently in tests.
func requireHolder(c *gin.Context) (wallet.Holder, bool) {
	caller, err := auth.CallerIdentity(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "holder identity required"})
		return wallet.Holder{}, false
	}
	return callerHolder(caller), true
}

func callerHolder(caller auth.Identity) wallet.Holder {
	if caller.UserID != "" {
		return wallet.UserHolder(caller.UserID)
	}
	return wallet.MerchantHolder(caller.MerchantID)
}

// respondEmptyWallet renders the zero wallet for holders that have not been
// credited yet. Returns false for errors other than ErrNotFound.
func respondEmptyWallet(c *gin.Context, h wallet.Holder, err error) bool {
	if !errors.Is(err, wallet.ErrNotFound) {
		return false
	}
	w := wallet.Wallet{}
	if h.UserID != "" {
		w.UserID = &h.UserID
	}
	if h.MerchantID != "" {
		w.MerchantID = &h.MerchantID
	}
	c.JSON(http.StatusOK, w)
	return true
}

func intQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": key + " must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

// timeRangeQuery parses optional RFC3339 from/to params, defaulting to the
// trailing 30 days.
func timeRangeQuery(c *gin.Context) (reporting.TimeRange, bool) {
	now := time.Now().UTC()
	rng := reporting.TimeRange{From: now.AddDate(0, 0, -30), To: now}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return rng, false
		}
		rng.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return rng, false
		}
		rng.To = t
	}
	return rng, true
}
