package domain

import "strings"

// Role identifies what an actor is allowed to do.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
	// RoleSystem is used by internal subsystems such as payment settlement.
	RoleSystem Role = "system"
)

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is the actor used when the payment subsystem settles a trip.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// ParseRole converts a token claim into a Role. Only externally assignable
// roles are accepted.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleDriver:
		return RoleDriver, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Is reports whether the actor holds role.
func (a Actor) Is(role Role) bool {
	return a.Role == role
}
