package repository

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketMessageRepository stores the reply/note thread. Messages are
// insert-only.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	GetByID(ctx context.Context, id int64) (*domain.TicketMessage, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketMessage, error)
}

type ticketMessageRepository struct {
	db Querier
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(db Querier) TicketMessageRepository {
	return &ticketMessageRepository{db: db}
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (ticket_id, user_id, is_internal, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		msg.TicketID,
		msg.UserID,
		msg.IsInternal,
		msg.Body,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *ticketMessageRepository) GetByID(ctx context.Context, id int64) (*domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, user_id, is_internal, body, created_at
        FROM ticket_messages WHERE id=$1`
	var msg domain.TicketMessage
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.TicketID,
		&msg.UserID,
		&msg.IsInternal,
		&msg.Body,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketMessage, error) {
	const query = `
        SELECT m.id, m.ticket_id, m.user_id, m.is_internal, m.body,
               CONCAT(COALESCE(u.first_name, ''), ' ', COALESCE(u.last_name, '')), m.created_at
        FROM ticket_messages m
        LEFT JOIN users u ON m.user_id = u.id
        WHERE m.ticket_id=$1
        ORDER BY m.created_at, m.id`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketMessage
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.UserID,
			&msg.IsInternal,
			&msg.Body,
			&msg.AuthorName,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		msg.AuthorName = strings.TrimSpace(msg.AuthorName)
		result = append(result, msg)
	}
	return result, rows.Err()
}
