package domain

import "time"

// Canonical status names carrying lifecycle side effects. Other rows in
// ticket_statuses are data-only.
const (
	StatusOpen     = "Open"
	StatusPending  = "Pending"
	StatusResolved = "Resolved"
	StatusClosed   = "Closed"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              int64
	TicketNumber    string
	Subject         string
	Description     string
	StatusID        int64
	PriorityID      int64
	CategoryID      *int64
	DepartmentID    *int64
	CreatedBy       int64
	AssignedTo      *int64
	ResolverID      *int64
	ClosedBy        *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
	DueAt           *time.Time
	DeletedAt       *time.Time
}

// TicketSummary is a list row enriched with joined display fields.
type TicketSummary struct {
	ID           int64
	TicketNumber string
	Subject      string
	Status       string
	Priority     string
	CreatedBy    string
	AssignedTo   string
	DepartmentID *int64
	CreatedAt    time.Time
}

// TicketStats aggregates counts for dashboard tiles. Computed over the
// caller's scope, independent of the active list filter.
type TicketStats struct {
	Total    int64
	Open     int64
	Pending  int64
	Resolved int64
	Closed   int64
	Urgent   int64
	High     int64
}
