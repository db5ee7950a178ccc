package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SlaPolicyRepository reads SLA policies. Absence of a policy is a
// valid state and is reported as a nil policy, not an error.
type SlaPolicyRepository interface {
	// FindForDepartment matches an active policy on exactly
	// (priority, department).
	FindForDepartment(ctx context.Context, priorityID, departmentID int64) (*domain.SlaPolicy, error)
	// FindGlobal matches the active department-less fallback policy
	// for the priority.
	FindGlobal(ctx context.Context, priorityID int64) (*domain.SlaPolicy, error)
}

type slaPolicyRepository struct {
	db Querier
}

// NewSlaPolicyRepository instantiates repository.
func NewSlaPolicyRepository(db Querier) SlaPolicyRepository {
	return &slaPolicyRepository{db: db}
}

const slaColumns = `id, name, priority_id, department_id, response_time, resolution_time, is_active, created_at`

func (r *slaPolicyRepository) FindForDepartment(ctx context.Context, priorityID, departmentID int64) (*domain.SlaPolicy, error) {
	query := `SELECT ` + slaColumns + `
        FROM sla_policies
        WHERE priority_id=$1 AND department_id=$2 AND is_active AND deleted_at IS NULL
        ORDER BY id LIMIT 1`
	return r.fetch(ctx, query, priorityID, departmentID)
}

func (r *slaPolicyRepository) FindGlobal(ctx context.Context, priorityID int64) (*domain.SlaPolicy, error) {
	query := `SELECT ` + slaColumns + `
        FROM sla_policies
        WHERE priority_id=$1 AND department_id IS NULL AND is_active AND deleted_at IS NULL
        ORDER BY id LIMIT 1`
	return r.fetch(ctx, query, priorityID)
}

func (r *slaPolicyRepository) fetch(ctx context.Context, query string, args ...any) (*domain.SlaPolicy, error) {
	var policy domain.SlaPolicy
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&policy.ID,
		&policy.Name,
		&policy.PriorityID,
		&policy.DepartmentID,
		&policy.ResponseTime,
		&policy.ResolutionTime,
		&policy.IsActive,
		&policy.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}
