package domain

import "time"

// TicketMessage is a reply or internal note on a ticket. Immutable
// once created; identical bodies are never merged.
type TicketMessage struct {
	ID         int64
	TicketID   int64
	UserID     int64
	IsInternal bool
	Body       string
	AuthorName string
	CreatedAt  time.Time
}

// TicketAttachment stores file metadata bound to a ticket and
// optionally to one of its messages. Bytes live in storage under
// FilePath.
type TicketAttachment struct {
	ID         int64
	TicketID   int64
	MessageID  *int64
	FileName   string
	StoredName string
	FilePath   string
	FileSize   int64
	MimeType   string
	UploadedBy int64
	UploadedAt time.Time
}
