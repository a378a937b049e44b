package main

import (
	"impact-platform/internal/httpapi"
	"impact-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", h.Health)

	// Processor webhooks (public).
	// NOTE: This endpoint should be protected by processor signature validation in production.
	r.POST("/webhooks/payment", h.PaymentWebhook)

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	authGroup := r.Group("/v1/auth")
	{
		authGroup.POST("/login", h.Login)
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		// Any verified token (including partner_api) may look up single
		// transactions; the handler hides rows the caller must not see.
		v1.GET("/transactions/:id", h.GetTransaction)

		// Holder routes: the caller's own transactions and wallet.
		holder := v1.Group("")
		holder.Use(rbac.RequireHolder())
		{
			holder.POST("/transactions", h.CreateTransaction)
			holder.GET("/wallet", h.GetWallet)
			holder.GET("/wallet/transactions", h.ListWalletTransactions)
			holder.GET("/wallet/summary", h.WalletSummary)
			holder.POST("/giftcards/redeem", h.RedeemGiftCard)
		}

		// ADMIN routes
		// Only admin/super_admin can access admin endpoints.
		// Hidden partner_api is intentionally NOT included.
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.GET("/config/rate", h.GetRate)
			admin.PUT("/config/rate", h.SetRate)
			admin.POST("/transactions", h.AdminCreateTransaction)
			admin.POST("/wallets/adjust", h.AdminAdjustWallet)
			admin.POST("/giftcards/batches", h.AdminIssueGiftBatch)
			admin.GET("/reports/adjustments", h.AdminAdjustmentSummary)
		}
	}
}
