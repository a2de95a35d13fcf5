package order

import "github.com/google/uuid"

// Role tags the kind of principal performing an action on an order.
type Role string

const (
	RoleClient     Role = "client"
	RoleWriter     Role = "writer"
	RoleEditor     Role = "editor"
	RoleSupport    Role = "support"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

var validRoles = map[Role]bool{
	RoleClient:     true,
	RoleWriter:     true,
	RoleEditor:     true,
	RoleSupport:    true,
	RoleAdmin:      true,
	RoleSuperadmin: true,
}

// IsValid returns true if the role is a known role tag.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsElevated returns true for roles that may override client-protecting rules,
// such as cancelling an order that already collected payment.
func (r Role) IsElevated() bool {
	return r == RoleSupport || r == RoleAdmin || r == RoleSuperadmin
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Actor is the principal requesting a transition or action.
// Automatic transitions carry a nil *Actor.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}
