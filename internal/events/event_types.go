package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated           EventType = "ticket_created"
	EventTicketStatusChanged     EventType = "ticket_status_changed"
	EventTicketAssignmentChanged EventType = "ticket_assignment_changed"
	EventTicketDepartmentChanged EventType = "ticket_department_changed"
	EventTicketMessageAdded      EventType = "ticket_message_added"
	EventTicketAttachmentAdded   EventType = "ticket_attachment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	ActorID   int64       `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string     `json:"ticket_number"`
	Subject      string     `json:"subject"`
	Priority     string     `json:"priority"`
	DepartmentID *int64     `json:"department_id,omitempty"`
	AssignedTo   *int64     `json:"assigned_to,omitempty"`
	DueAt        *time.Time `json:"due_at,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// TicketAssignmentChangedPayload payload.
type TicketAssignmentChangedPayload struct {
	OldAssignee *int64 `json:"old_assignee,omitempty"`
	NewAssignee *int64 `json:"new_assignee,omitempty"`
}

// TicketDepartmentChangedPayload payload.
type TicketDepartmentChangedPayload struct {
	OldDepartment *int64 `json:"old_department,omitempty"`
	NewDepartment *int64 `json:"new_department,omitempty"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   int64  `json:"message_id"`
	IsInternal  bool   `json:"is_internal"`
	BodyPreview string `json:"body_preview"`
}

// TicketAttachmentAddedPayload payload.
type TicketAttachmentAddedPayload struct {
	AttachmentID int64  `json:"attachment_id"`
	FileName     string `json:"file_name"`
	SizeBytes    int64  `json:"size_bytes"`
}
