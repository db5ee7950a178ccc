package domain

import "time"

// Activity log actions written by the ticket lifecycle.
const (
	ActionTicketCreated     = "ticket_created"
	ActionStatusChanged     = "status_changed"
	ActionAssignmentChanged = "assignment_changed"
	ActionDepartmentChanged = "department_changed"
	ActionMessageAdded      = "message_added"
	ActionAttachmentAdded   = "attachment_added"
)

// TicketActivityLog is an append-only audit record of a single field
// transition. Never updated or removed.
type TicketActivityLog struct {
	ID        int64
	TicketID  int64
	UserID    int64
	Action    string
	OldValue  *string
	NewValue  *string
	Details   map[string]any
	UserName  string
	CreatedAt time.Time
}
