package model

import "fmt"

// Role is the closed set of account kinds.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// SelfRegistrable reports whether accounts of this role may sign up on their own.
func (r Role) SelfRegistrable() bool {
	return r == RolePatient || r == RoleDoctor
}

// MatchRole dispatches on r. Every call site has to supply a branch for each
// role, so adding a role breaks the build instead of silently falling through.
func MatchRole[T any](r Role, onPatient, onDoctor, onAdmin func() (T, error)) (T, error) {
	switch r {
	case RolePatient:
		return onPatient()
	case RoleDoctor:
		return onDoctor()
	case RoleAdmin:
		return onAdmin()
	}
	var zero T
	return zero, fmt.Errorf("unknown role %q", string(r))
}

// ApprovalStatus tracks whether an admin has vetted an account.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)
