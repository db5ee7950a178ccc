package repository

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ActivityLogRepository stores the append-only audit trail. Entries
// are never updated or removed.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.TicketActivityLog) error
	ListByTicket(ctx context.Context, ticketID int64, limit int) ([]domain.TicketActivityLog, error)
}

type activityLogRepository struct {
	db Querier
}

// NewActivityLogRepository builds repository.
func NewActivityLogRepository(db Querier) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *domain.TicketActivityLog) error {
	const query = `
        INSERT INTO ticket_activity_logs (ticket_id, user_id, action, old_value, new_value, details)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.UserID,
		entry.Action,
		entry.OldValue,
		entry.NewValue,
		entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityLogRepository) ListByTicket(ctx context.Context, ticketID int64, limit int) ([]domain.TicketActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT l.id, l.ticket_id, l.user_id, l.action, l.old_value, l.new_value, l.details,
               CONCAT(COALESCE(u.first_name, ''), ' ', COALESCE(u.last_name, '')), l.created_at
        FROM ticket_activity_logs l
        LEFT JOIN users u ON l.user_id = u.id
        WHERE l.ticket_id=$1
        ORDER BY l.created_at DESC, l.id DESC
        LIMIT $2`
	rows, err := r.db.Query(ctx, query, ticketID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketActivityLog
	for rows.Next() {
		var entry domain.TicketActivityLog
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.UserID,
			&entry.Action,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Details,
			&entry.UserName,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.UserName = strings.TrimSpace(entry.UserName)
		result = append(result, entry)
	}
	return result, rows.Err()
}
