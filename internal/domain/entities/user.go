package entities

import "strings"

// Role identifies which dashboard and guarded routes a user may reach
type Role string

const (
	RoleTraveler      Role = "traveler"
	RoleTravelPartner Role = "travel_partner"
	RoleAdmin         Role = "admin"
)

// legacyRoles maps role names still issued by older accounts onto current ones.
var legacyRoles = map[string]Role{
	"user":  RoleTraveler,
	"agent": RoleTravelPartner,
}

// NormalizeRole maps legacy aliases onto canonical roles. Unknown roles pass through unchanged.
func NormalizeRole(raw string) Role {
	if role, ok := legacyRoles[raw]; ok {
		return role
	}
	return Role(raw)
}

// LandingPath is where a freshly logged-in user of this role is sent.
func (r Role) LandingPath() string {
	switch r {
	case RoleTravelPartner:
		return "/agent/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	default:
		return "/"
	}
}

// User is the identity held by a session
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NameFromEmail returns the local part of an email address.
func NameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
