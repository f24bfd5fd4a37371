package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Membership roles.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleMember   = "member"
)

// Membership binds a principal to a workspace with a role.
// There is at most one membership per (workspace, user) pair.
type Membership struct {
	WorkspaceID uuid.UUID
	UserID      uuid.UUID
	Role        string   // "admin", "operator" or "member"
	Territories []string // Optional territory scope, empty means all

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRole returns true if the membership role is one of roles.
func (m *Membership) HasRole(roles ...string) bool {
	return slices.Contains(roles, m.Role)
}

// ValidRole reports whether role is a known membership role.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOperator, RoleMember:
		return true
	}
	return false
}
