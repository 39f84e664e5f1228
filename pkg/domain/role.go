package domain

import "fmt"

// Role is the closed set of account roles. Authorization logic switches on
// this type exhaustively; free-form role strings never cross the boundary.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role string coming from storage or a token claim.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleManager, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

func (r Role) String() string { return string(r) }

// IsAdmin reports whether the role carries unconditional administrative
// override.
func (r Role) IsAdmin() bool { return r == RoleAdmin }
