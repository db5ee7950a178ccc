package dto

import "time"

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject      string `json:"subject"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	CategoryID   *int64 `json:"category_id"`
	DepartmentID *int64 `json:"department_id"`
	AssignedTo   *int64 `json:"assigned_to"`
}

// UpdateTicketRequest payload. Absent fields are left unchanged;
// nullable references distinguish "absent" from "set to null" through
// OptionalID.
type UpdateTicketRequest struct {
	Subject      *string    `json:"subject"`
	Description  *string    `json:"description"`
	StatusID     *int64     `json:"status_id"`
	PriorityID   *int64     `json:"priority_id"`
	CategoryID   OptionalID `json:"category_id"`
	DepartmentID OptionalID `json:"department_id"`
	AssignedTo   OptionalID `json:"assigned_to"`
}

// TicketSummary response row.
type TicketSummary struct {
	ID           int64     `json:"id"`
	TicketNumber string    `json:"ticket_number"`
	Subject      string    `json:"subject"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority"`
	CreatedBy    string    `json:"created_by"`
	AssignedTo   string    `json:"assigned_to,omitempty"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TicketStatsResponse dashboard tiles.
type TicketStatsResponse struct {
	Total    int64 `json:"total"`
	Open     int64 `json:"open"`
	Pending  int64 `json:"pending"`
	Resolved int64 `json:"resolved"`
	Closed   int64 `json:"closed"`
	Urgent   int64 `json:"urgent"`
	High     int64 `json:"high"`
}

// TicketPageResponse one listing page.
type TicketPageResponse struct {
	Items    []TicketSummary     `json:"items"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Stats    TicketStatsResponse `json:"stats"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID              int64                   `json:"id"`
	TicketNumber    string                  `json:"ticket_number"`
	Subject         string                  `json:"subject"`
	Description     string                  `json:"description"`
	Status          string                  `json:"status"`
	Priority        string                  `json:"priority"`
	CategoryID      *int64                  `json:"category_id,omitempty"`
	DepartmentID    *int64                  `json:"department_id,omitempty"`
	CreatedBy       int64                   `json:"created_by"`
	AssignedTo      *int64                  `json:"assigned_to,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	FirstResponseAt *time.Time              `json:"first_response_at,omitempty"`
	ResolvedAt      *time.Time              `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time              `json:"closed_at,omitempty"`
	DueAt           *time.Time              `json:"due_at,omitempty"`
	Sla             *SlaPolicyResponse      `json:"sla,omitempty"`
	Messages        []TicketMessageResponse `json:"messages"`
	Attachments     []AttachmentResponse    `json:"attachments"`
	Activity        []ActivityLogResponse   `json:"activity"`
}

// TicketMessageResponse represents a thread message.
type TicketMessageResponse struct {
	ID         int64     `json:"id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	IsInternal bool      `json:"is_internal"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body       string `json:"body"`
	IsInternal bool   `json:"is_internal"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        int64     `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityLogResponse audit row.
type ActivityLogResponse struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	OldValue  *string   `json:"old_value,omitempty"`
	NewValue  *string   `json:"new_value,omitempty"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
}

// SlaPolicyResponse describes the matched policy.
type SlaPolicyResponse struct {
	Name              string `json:"name"`
	ResponseMinutes   int    `json:"response_minutes"`
	ResolutionMinutes int    `json:"resolution_minutes"`
}
