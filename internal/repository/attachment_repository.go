package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AttachmentRepository stores file metadata bound to tickets.
type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.TicketAttachment) error
	GetByID(ctx context.Context, ticketID, id int64) (*domain.TicketAttachment, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketAttachment, error)
}

type attachmentRepository struct {
	db Querier
}

// NewAttachmentRepository builds repository.
func NewAttachmentRepository(db Querier) AttachmentRepository {
	return &attachmentRepository{db: db}
}

const attachmentColumns = `id, ticket_id, message_id, file_name, stored_name, file_path, file_size, mime_type, uploaded_by, uploaded_at`

func (r *attachmentRepository) Create(ctx context.Context, att *domain.TicketAttachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, message_id, file_name, stored_name, file_path, file_size, mime_type, uploaded_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, uploaded_at`
	return r.db.QueryRow(ctx, query,
		att.TicketID,
		att.MessageID,
		att.FileName,
		att.StoredName,
		att.FilePath,
		att.FileSize,
		att.MimeType,
		att.UploadedBy,
	).Scan(&att.ID, &att.UploadedAt)
}

func (r *attachmentRepository) GetByID(ctx context.Context, ticketID, id int64) (*domain.TicketAttachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE ticket_id=$1 AND id=$2`
	var att domain.TicketAttachment
	if err := r.db.QueryRow(ctx, query, ticketID, id).Scan(
		&att.ID,
		&att.TicketID,
		&att.MessageID,
		&att.FileName,
		&att.StoredName,
		&att.FilePath,
		&att.FileSize,
		&att.MimeType,
		&att.UploadedBy,
		&att.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketAttachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM ticket_attachments WHERE ticket_id=$1 ORDER BY uploaded_at, id`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAttachment
	for rows.Next() {
		var att domain.TicketAttachment
		if err := rows.Scan(
			&att.ID,
			&att.TicketID,
			&att.MessageID,
			&att.FileName,
			&att.StoredName,
			&att.FilePath,
			&att.FileSize,
			&att.MimeType,
			&att.UploadedBy,
			&att.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}
