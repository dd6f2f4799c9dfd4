package domain

// Role is a marketplace role a user may act under.
type Role string

const (
	// RoleRequester posts jobs and reviews submitted work.
	RoleRequester Role = "REQUESTER"
	// RoleHelper claims jobs, uploads captured content, and submits it.
	RoleHelper Role = "HELPER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleRequester || r == RoleHelper
}

// Identity is the verified caller as established by the external identity
// provider. Authorization keys strictly off ActiveRole; GrantedRoles only
// constrains which roles a session may activate.
type Identity struct {
	SubjectID    string
	GrantedRoles []Role
	ActiveRole   Role
}

// HasGranted reports whether r is in the caller's granted role set.
func (i Identity) HasGranted(r Role) bool {
	for _, g := range i.GrantedRoles {
		if g == r {
			return true
		}
	}
	return false
}
