package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// DepartmentRepository reads organizational units.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	ListActive(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	db Querier
}

// NewDepartmentRepository instantiates repository.
func NewDepartmentRepository(db Querier) DepartmentRepository {
	return &departmentRepository{db: db}
}

const departmentColumns = `id, name, short_code, manager_id, is_active, created_at, updated_at`

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id=$1 AND deleted_at IS NULL`
	var dept domain.Department
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.ShortCode,
		&dept.ManagerID,
		&dept.IsActive,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) ListActive(ctx context.Context) ([]domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE deleted_at IS NULL AND is_active ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(
			&dept.ID,
			&dept.Name,
			&dept.ShortCode,
			&dept.ManagerID,
			&dept.IsActive,
			&dept.CreatedAt,
			&dept.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
