package domain

import (
	"errors"
	"strings"
)

var (
	ErrEmptyID      = errors.New("user id is required")
	ErrEmptyName    = errors.New("user name is required")
	ErrInvalidEmail = errors.New("email must contain '@'")
	ErrInvalidRole  = errors.New("user role is invalid")
)

// Role mirrors the workflow roles a directory entry can hold.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleSales     Role = "Sales"
	RoleTeam      Role = "Team"
	RoleDigitizer Role = "Digitizer"
	RoleVendor    Role = "Vendor"
	RoleDelivery  Role = "Delivery"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSales, RoleTeam, RoleDigitizer, RoleVendor, RoleDelivery:
		return true
	default:
		return false
	}
}

// User is a directory entry for someone who can act on orders.
// Credentials live with the identity provider, not here.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// NewUser builds a user ensuring required invariants.
func NewUser(id, name, email string, role Role) (*User, error) {
	user := &User{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Role: role}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate re-applies core invariants for persistence.
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}
