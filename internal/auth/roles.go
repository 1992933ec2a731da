package auth

import "fmt"

// Role is the closed set of account roles. Keeping it a dedicated type forces
// role checks through switches on the two variants instead of ad-hoc string
// comparison.
type Role string

const (
	// RoleGovernment reviews and approves submitted data.
	RoleGovernment Role = "government"
	// RoleResearcher submits data for approval.
	RoleResearcher Role = "researcher"
)

// ParseRole validates a wire-level role value.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleGovernment:
		return RoleGovernment, nil
	case RoleResearcher:
		return RoleResearcher, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// Valid reports whether the role is one of the two known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleGovernment, RoleResearcher:
		return true
	}
	return false
}
