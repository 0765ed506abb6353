// Package identity describes who is calling. It is resolved once at the
// transport boundary and passed explicitly to every use case.
package identity

import "errors"

var ErrUnauthenticated = errors.New("identity: caller is not authenticated")

type Role string

const (
	RoleConsumer        Role = "consumer"
	RoleFarmer          Role = "farmer"
	RoleDeliveryPartner Role = "delivery_partner"
	RoleAdmin           Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleConsumer, RoleFarmer, RoleDeliveryPartner, RoleAdmin:
		return true
	default:
		return false
	}
}

type Caller struct {
	UserID string
	Role   Role
}

func New(userID string, role Role) (Caller, error) {
	if userID == "" || !role.Valid() {
		return Caller{}, ErrUnauthenticated
	}
	return Caller{UserID: userID, Role: role}, nil
}

func (c Caller) Authenticated() bool {
	return c.UserID != "" && c.Role.Valid()
}

func (c Caller) Is(role Role) bool {
	return c.Authenticated() && c.Role == role
}
