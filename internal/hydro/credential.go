package hydro

import "strings"

// Role is the backend role attached to an access token.
type Role string

// Roles understood by the dashboard.
const (
	RoleAdmin    Role = "admin"
	RoleBilling  Role = "billing"
	RoleCustomer Role = "customer"
)

// Credential authorises backend calls. It is passed explicitly to every call
// that needs it; the client never looks a token up on its own.
type Credential struct {
	Token  string
	Role   Role
	UserID string
	Email  string
}

// Valid reports whether the credential carries a token.
func (c Credential) Valid() bool {
	return strings.TrimSpace(c.Token) != ""
}

// IsAdmin reports whether the credential grants the admin usage views.
func (c Credential) IsAdmin() bool {
	switch Role(strings.ToLower(string(c.Role))) {
	case RoleAdmin, RoleBilling:
		return true
	default:
		return false
	}
}
