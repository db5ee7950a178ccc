package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketScope restricts queries to what the caller may see. A nil
// DepartmentIDs slice means unrestricted; an empty one matches nothing
// (a manager with no departments sees no tickets).
type TicketScope struct {
	DepartmentIDs []int64
	AssignedTo    *int64
	CreatedBy     *int64
}

// TicketFilter captures list-screen parameters on top of a scope.
// Status and Priority filter by lookup name; Search matches ticket
// number and subject.
type TicketFilter struct {
	Scope        TicketScope
	Status       string
	Priority     string
	DepartmentID *int64
	Search       string
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	SoftDelete(ctx context.Context, id int64) error
	// NumbersForYear returns every ticket number with the year's
	// prefix, soft-deleted rows included, so numbers are never reused.
	NumbersForYear(ctx context.Context, year int) ([]string, error)
	ListSummaries(ctx context.Context, filter TicketFilter) ([]domain.TicketSummary, int64, error)
	Stats(ctx context.Context, scope TicketScope) (domain.TicketStats, error)
	CountOpenByAssignee(ctx context.Context, openStatusID int64, assigneeIDs []int64) (map[int64]int64, error)
}

type ticketRepository struct {
	db Querier
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db Querier) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, ticket_number, subject, description, status_id, priority_id, category_id,
               department_id, created_by, assigned_to, resolver_id, closed_by,
               created_at, updated_at, first_response_at, resolved_at, closed_at, due_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, subject, description, status_id, priority_id, category_id,
                             department_id, created_by, assigned_to, due_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.Subject,
		ticket.Description,
		ticket.StatusID,
		ticket.PriorityID,
		ticket.CategoryID,
		ticket.DepartmentID,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.DueAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status_id=$1, priority_id=$2, category_id=$3, department_id=$4,
            assigned_to=$5, resolver_id=$6, closed_by=$7, first_response_at=$8,
            resolved_at=$9, closed_at=$10, due_at=$11, updated_at=NOW()
        WHERE id=$12 AND deleted_at IS NULL`
	cmd, err := r.db.Exec(ctx, query,
		ticket.StatusID,
		ticket.PriorityID,
		ticket.CategoryID,
		ticket.DepartmentID,
		ticket.AssignedTo,
		ticket.ResolverID,
		ticket.ClosedBy,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.DueAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1 AND deleted_at IS NULL`, ticketColumns)
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Subject,
		&ticket.Description,
		&ticket.StatusID,
		&ticket.PriorityID,
		&ticket.CategoryID,
		&ticket.DepartmentID,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.ResolverID,
		&ticket.ClosedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.DueAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE tickets SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) NumbersForYear(ctx context.Context, year int) ([]string, error) {
	const query = `SELECT ticket_number FROM tickets WHERE ticket_number LIKE $1`
	rows, err := r.db.Query(ctx, query, fmt.Sprintf("TICKET-%d-%%", year))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		numbers = append(numbers, number)
	}
	return numbers, rows.Err()
}

func (r *ticketRepository) ListSummaries(ctx context.Context, filter TicketFilter) ([]domain.TicketSummary, int64, error) {
	where, args := buildTicketWhere(filter)

	countQuery := fmt.Sprintf(`
        SELECT COUNT(*)
        FROM tickets
        LEFT JOIN ticket_statuses ON tickets.status_id = ticket_statuses.id
        LEFT JOIN ticket_priorities ON tickets.priority_id = ticket_priorities.id
        WHERE %s`, where)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 15
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	listQuery := fmt.Sprintf(`
        SELECT tickets.id, tickets.ticket_number, tickets.subject,
               COALESCE(ticket_statuses.name, ''), COALESCE(ticket_priorities.name, ''),
               CONCAT(COALESCE(creator.first_name, ''), ' ', COALESCE(creator.last_name, '')),
               CONCAT(COALESCE(assignee.first_name, ''), ' ', COALESCE(assignee.last_name, '')),
               tickets.department_id, tickets.created_at
        FROM tickets
        LEFT JOIN ticket_statuses ON tickets.status_id = ticket_statuses.id
        LEFT JOIN ticket_priorities ON tickets.priority_id = ticket_priorities.id
        LEFT JOIN users AS creator ON tickets.created_by = creator.id
        LEFT JOIN users AS assignee ON tickets.assigned_to = assignee.id
        WHERE %s
        ORDER BY tickets.created_at DESC
        LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.TicketSummary
	for rows.Next() {
		var row domain.TicketSummary
		if err := rows.Scan(
			&row.ID,
			&row.TicketNumber,
			&row.Subject,
			&row.Status,
			&row.Priority,
			&row.CreatedBy,
			&row.AssignedTo,
			&row.DepartmentID,
			&row.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		row.CreatedBy = strings.TrimSpace(row.CreatedBy)
		row.AssignedTo = strings.TrimSpace(row.AssignedTo)
		result = append(result, row)
	}
	return result, total, rows.Err()
}

func (r *ticketRepository) Stats(ctx context.Context, scope TicketScope) (domain.TicketStats, error) {
	where, args := buildTicketWhere(TicketFilter{Scope: scope})
	query := fmt.Sprintf(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE ticket_statuses.name = 'Open'),
               COUNT(*) FILTER (WHERE ticket_statuses.name = 'Pending'),
               COUNT(*) FILTER (WHERE ticket_statuses.name = 'Resolved'),
               COUNT(*) FILTER (WHERE ticket_statuses.name = 'Closed'),
               COUNT(*) FILTER (WHERE ticket_priorities.name = 'Urgent'),
               COUNT(*) FILTER (WHERE ticket_priorities.name = 'High')
        FROM tickets
        LEFT JOIN ticket_statuses ON tickets.status_id = ticket_statuses.id
        LEFT JOIN ticket_priorities ON tickets.priority_id = ticket_priorities.id
        WHERE %s`, where)

	var stats domain.TicketStats
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&stats.Total,
		&stats.Open,
		&stats.Pending,
		&stats.Resolved,
		&stats.Closed,
		&stats.Urgent,
		&stats.High,
	); err != nil {
		return domain.TicketStats{}, err
	}
	return stats, nil
}

func (r *ticketRepository) CountOpenByAssignee(ctx context.Context, openStatusID int64, assigneeIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(assigneeIDs))
	if len(assigneeIDs) == 0 {
		return counts, nil
	}
	const query = `
        SELECT assigned_to, COUNT(*)
        FROM tickets
        WHERE deleted_at IS NULL AND status_id=$1 AND assigned_to = ANY($2)
        GROUP BY assigned_to`
	rows, err := r.db.Query(ctx, query, openStatusID, assigneeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID, count int64
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, err
		}
		counts[userID] = count
	}
	return counts, rows.Err()
}

// buildTicketWhere composes the WHERE clause shared by list, count and
// stats queries. Soft-deleted tickets are always excluded.
func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"tickets.deleted_at IS NULL"}
	args := []any{}

	if filter.Scope.DepartmentIDs != nil {
		if len(filter.Scope.DepartmentIDs) == 0 {
			clauses = append(clauses, "FALSE")
		} else {
			args = append(args, filter.Scope.DepartmentIDs)
			clauses = append(clauses, fmt.Sprintf("tickets.department_id = ANY($%d)", len(args)))
		}
	}
	if filter.Scope.AssignedTo != nil {
		args = append(args, *filter.Scope.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("tickets.assigned_to = $%d", len(args)))
	}
	if filter.Scope.CreatedBy != nil {
		args = append(args, *filter.Scope.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("tickets.created_by = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("ticket_statuses.name = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		clauses = append(clauses, fmt.Sprintf("ticket_priorities.name = $%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("tickets.department_id = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(tickets.ticket_number) LIKE %s OR LOWER(tickets.subject) LIKE %s)", placeholder, placeholder))
	}

	return strings.Join(clauses, " AND "), args
}
