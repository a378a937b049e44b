package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleUser       = "user"
	RoleMerchant   = "merchant"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RolePartnerAPI = "partner_api" // hidden role
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RolePartnerAPI }
