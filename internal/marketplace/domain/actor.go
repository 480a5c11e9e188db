package domain

import "strings"

// Role is the capability set an authenticated actor acts under.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleChef     Role = "chef"
	RoleAdmin    Role = "admin"
)

// ParseRole accepts the canonical role names as well as the legacy
// "user"/"homechef" spellings still present in issued tokens.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "user":
		return RoleCustomer, true
	case "chef", "homechef":
		return RoleChef, true
	case "admin":
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Actor is the authenticated identity behind a request.
type Actor struct {
	ID   string
	Role Role
}

// Authenticated reports whether the actor carries an identity.
func (a Actor) Authenticated() bool {
	return a.ID != "" && a.Role != ""
}

// Profile is the display data of an actor, joined into order views.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role,omitempty"`
}
