package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Holder invariant: every token identifies exactly one wallet holder, a
// user or a merchant, never both. Admin/partner tokens are user tokens
// whose role grants the extra capability; authorization is rbac's job.
type Claims struct {
	jwt.RegisteredClaims

	UserID     string    `json:"user_id,omitempty"`
	MerchantID string    `json:"merchant_id,omitempty"`
	Role       string    `json:"role"`
	TokenType  TokenType `json:"token_type"`
}
