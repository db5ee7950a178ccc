package domain

import (
	"strings"
	"time"
)

// Role names seeded by migrations. A user has exactly one role.
const (
	RoleUser    = "user"
	RoleAgent   = "agent"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// Permission names seeded by migrations.
const (
	PermTicketsView   = "tickets.view"
	PermTicketsManage = "tickets.manage"
	PermTicketsDelete = "tickets.delete"
	PermReportsView   = "reports.view"
)

// Role groups a named set of permissions.
type Role struct {
	ID          int64
	Name        string
	Title       string
	Description string
	IsSystem    bool
	SortOrder   int
}

// Permission is a named capability grantable to roles.
type Permission struct {
	ID       int64
	Name     string
	Title    string
	Category string
}

// User is the single account model: requesters and staff differ only
// by role.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	RoleID       int64
	RoleName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// DisplayName renders "First Last", falling back to the email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// IsStaff reports whether the user acts on tickets beyond their own.
func (u *User) IsStaff() bool {
	switch u.RoleName {
	case RoleAgent, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// AssignableRoles are the roles eligible to receive ticket assignments.
var AssignableRoles = []string{RoleManager, RoleAgent}
