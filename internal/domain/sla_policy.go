package domain

import "time"

// SlaPolicy maps a priority (and optionally a department) to response
// and resolution targets in minutes. A nil DepartmentID marks the
// global fallback policy for that priority.
type SlaPolicy struct {
	ID             int64
	Name           string
	PriorityID     *int64
	DepartmentID   *int64
	ResponseTime   int
	ResolutionTime int
	IsActive       bool
	CreatedAt      time.Time
	DeletedAt      *time.Time
}
