package models

// Actor identifies who is requesting a state-changing operation. The state
// machine's authorization gate is the single place role checks happen.
type Actor struct {
	UserID uint
	Role   UserRole
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == UserRoleAdmin
}
