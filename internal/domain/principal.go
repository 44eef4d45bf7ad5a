package domain

// Role is a closed set of access levels with a total order.
type Role int

const (
	RoleEmployee Role = iota
	RoleManager
	RoleHR
	RoleAdmin
)

var roleNames = map[string]Role{
	"employee": RoleEmployee,
	"manager":  RoleManager,
	"hr":       RoleHR,
	"admin":    RoleAdmin,
}

// ParseRole maps a role name to its Role value. Unknown names fall back to
// the least privileged role.
func ParseRole(name string) (Role, bool) {
	role, ok := roleNames[name]
	if !ok {
		return RoleEmployee, false
	}
	return role, true
}

func (r Role) String() string {
	switch r {
	case RoleManager:
		return "manager"
	case RoleHR:
		return "hr"
	case RoleAdmin:
		return "admin"
	default:
		return "employee"
	}
}

// AtLeast reports whether the role grants at least the given access level.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// Principal identifies the caller of an operation. It is constructed at the
// HTTP boundary and passed explicitly; there is no ambient session state.
type Principal struct {
	UserID     int64 `json:"user_id"`
	Role       Role  `json:"role"`
	EmployeeID int64 `json:"employee_id"`
}
