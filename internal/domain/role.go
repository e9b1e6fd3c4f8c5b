package domain

import "strings"

// Role is the canonical access level. Roles are ordered: a higher role has
// every privilege of the lower ones.
type Role int

const (
	RoleNone Role = iota
	RolePersonal
	RoleDisp
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RolePersonal:
		return "personal"
	case RoleDisp:
		return "disp"
	case RoleAdmin:
		return "admin"
	default:
		return "none"
	}
}

// CanWrite reports whether the role may edit the planning grid.
func (r Role) CanWrite() bool {
	return r >= RoleDisp
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// ParseRole normalizes a stored or submitted role value. Both the current
// scheme (personal/disp/admin) and the legacy scheme (user/admin/superadmin)
// are accepted; ok is false for anything else.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "personal", "user":
		return RolePersonal, true
	case "disp":
		return RoleDisp, true
	case "admin", "superadmin":
		return RoleAdmin, true
	case "none":
		return RoleNone, true
	default:
		return RoleNone, false
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, ok := ParseRole(string(text))
	if !ok {
		return ErrInvalidRole
	}
	*r = parsed
	return nil
}
