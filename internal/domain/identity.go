package domain

// Role classifies an authenticated account.
type Role string

const (
	RoleAdmin Role = "admin" // platform operator, crosses tenant boundaries
	RoleOwner Role = "owner" // store owner, bound to their own tenant
)

// Identity is the authenticated principal attached to a request. Token
// verification happens in a collaborator; the core only consumes the result.
type Identity struct {
	AccountID string
	Email     string
	Role      Role
}

// IsAdmin reports whether the identity is a platform admin.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
