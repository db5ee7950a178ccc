package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// LookupRepository reads the ticket reference tables: statuses,
// priorities and categories.
type LookupRepository interface {
	GetStatusByID(ctx context.Context, id int64) (*domain.TicketStatus, error)
	GetStatusByName(ctx context.Context, name string) (*domain.TicketStatus, error)
	ListActiveStatuses(ctx context.Context) ([]domain.TicketStatus, error)
	GetPriorityByID(ctx context.Context, id int64) (*domain.TicketPriority, error)
	GetPriorityByName(ctx context.Context, name string) (*domain.TicketPriority, error)
	ListPriorities(ctx context.Context) ([]domain.TicketPriority, error)
	GetCategoryByID(ctx context.Context, id int64) (*domain.TicketCategory, error)
	ListActiveCategories(ctx context.Context) ([]domain.TicketCategory, error)
}

type lookupRepository struct {
	db Querier
}

// NewLookupRepository instantiates repository.
func NewLookupRepository(db Querier) LookupRepository {
	return &lookupRepository{db: db}
}

const statusColumns = `id, name, title, color_hex, is_active, is_closed, is_resolved, sort_order, created_at, updated_at`

func (r *lookupRepository) GetStatusByID(ctx context.Context, id int64) (*domain.TicketStatus, error) {
	return r.fetchStatus(ctx, `SELECT `+statusColumns+` FROM ticket_statuses WHERE id=$1`, id)
}

func (r *lookupRepository) GetStatusByName(ctx context.Context, name string) (*domain.TicketStatus, error) {
	return r.fetchStatus(ctx, `SELECT `+statusColumns+` FROM ticket_statuses WHERE name=$1`, name)
}

func (r *lookupRepository) fetchStatus(ctx context.Context, query string, arg any) (*domain.TicketStatus, error) {
	var status domain.TicketStatus
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&status.ID,
		&status.Name,
		&status.Title,
		&status.ColorHex,
		&status.IsActive,
		&status.IsClosed,
		&status.IsResolved,
		&status.SortOrder,
		&status.CreatedAt,
		&status.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *lookupRepository) ListActiveStatuses(ctx context.Context) ([]domain.TicketStatus, error) {
	query := `SELECT ` + statusColumns + ` FROM ticket_statuses WHERE is_active ORDER BY sort_order, name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketStatus
	for rows.Next() {
		var status domain.TicketStatus
		if err := rows.Scan(
			&status.ID,
			&status.Name,
			&status.Title,
			&status.ColorHex,
			&status.IsActive,
			&status.IsClosed,
			&status.IsResolved,
			&status.SortOrder,
			&status.CreatedAt,
			&status.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

const priorityColumns = `id, name, level, color_hex, sort_order, created_at, updated_at`

func (r *lookupRepository) GetPriorityByID(ctx context.Context, id int64) (*domain.TicketPriority, error) {
	return r.fetchPriority(ctx, `SELECT `+priorityColumns+` FROM ticket_priorities WHERE id=$1`, id)
}

func (r *lookupRepository) GetPriorityByName(ctx context.Context, name string) (*domain.TicketPriority, error) {
	return r.fetchPriority(ctx, `SELECT `+priorityColumns+` FROM ticket_priorities WHERE name=$1`, name)
}

func (r *lookupRepository) fetchPriority(ctx context.Context, query string, arg any) (*domain.TicketPriority, error) {
	var priority domain.TicketPriority
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&priority.ID,
		&priority.Name,
		&priority.Level,
		&priority.ColorHex,
		&priority.SortOrder,
		&priority.CreatedAt,
		&priority.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &priority, nil
}

func (r *lookupRepository) ListPriorities(ctx context.Context) ([]domain.TicketPriority, error) {
	query := `SELECT ` + priorityColumns + ` FROM ticket_priorities ORDER BY sort_order, name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketPriority
	for rows.Next() {
		var priority domain.TicketPriority
		if err := rows.Scan(
			&priority.ID,
			&priority.Name,
			&priority.Level,
			&priority.ColorHex,
			&priority.SortOrder,
			&priority.CreatedAt,
			&priority.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, priority)
	}
	return result, rows.Err()
}

const categoryColumns = `id, name, title, is_active, sort_order, created_at, updated_at`

func (r *lookupRepository) GetCategoryByID(ctx context.Context, id int64) (*domain.TicketCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM ticket_categories WHERE id=$1`
	var category domain.TicketCategory
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Title,
		&category.IsActive,
		&category.SortOrder,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *lookupRepository) ListActiveCategories(ctx context.Context) ([]domain.TicketCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM ticket_categories WHERE is_active ORDER BY sort_order`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketCategory
	for rows.Next() {
		var category domain.TicketCategory
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Title,
			&category.IsActive,
			&category.SortOrder,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
