package domain

import "time"

// TicketStatus is a reference row from the ticket_statuses table.
// Immutable once referenced by a ticket (restrict-on-delete).
type TicketStatus struct {
	ID         int64
	Name       string
	Title      string
	ColorHex   string
	IsActive   bool
	IsClosed   bool
	IsResolved bool
	SortOrder  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TicketPriority is a reference row from the ticket_priorities table.
type TicketPriority struct {
	ID        int64
	Name      string
	Level     int
	ColorHex  string
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TicketCategory is a reference row from the ticket_categories table.
type TicketCategory struct {
	ID        int64
	Name      string
	Title     string
	IsActive  bool
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}
