package domain

import "time"

// Department is an organizational unit tickets can be routed to.
type Department struct {
	ID        int64
	Name      string
	ShortCode string
	ManagerID *int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// UserDepartment is the membership join row between users and
// departments.
type UserDepartment struct {
	UserID       int64
	DepartmentID int64
	IsPrimary    bool
	JoinedAt     time.Time
}
