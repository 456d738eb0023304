// Package access implements the dashboard's access control gate: the closed
// role set, the immutable page table and the decision function that maps a
// principal and a page rule to an allow, redirect or pending outcome.
package access

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Role is a staff role tag.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleKitchenStaff     Role = "kitchen_staff"
	RoleInventoryManager Role = "inventory_manager"
	RoleDeliveryStaff    Role = "delivery_staff"
)

// ErrUnknownRole is returned when a role string is outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

var allRoles = []Role{RoleAdmin, RoleKitchenStaff, RoleInventoryManager, RoleDeliveryStaff}

// Roles returns every known role.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts a stored role string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// RoleSet is the permitted-role set of a page. Empty means any signed-in principal.
type RoleSet []Role

// Contains reports whether r is a member of the set.
func (s RoleSet) Contains(r Role) bool {
	for _, member := range s {
		if member == r {
			return true
		}
	}
	return false
}

// Principal is the authenticated identity and role of the current user.
type Principal struct {
	ID       uuid.UUID `json:"id"`
	Role     Role      `json:"role"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

// IsAdmin reports whether the principal bypasses every page rule.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
