package model

import "time"

type Role string

const (
	RoleViewer     Role = "viewer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	}
	return 0
}

func (r Role) Valid() bool { return r.rank() > 0 }

// Allows reports whether r is at least as privileged as required.
func (r Role) Allows(required Role) bool {
	return r.Valid() && r.rank() >= required.rank()
}

// AdminUser grants a Supabase auth user access to the admin API.
type AdminUser struct {
	ID        string
	UserID    string // Supabase auth user id (JWT sub)
	Email     string
	Role      Role
	CreatedAt time.Time
}
