package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// UserRepository defines persistence access for accounts, roles and
// permissions.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetRoleByName(ctx context.Context, name string) (*domain.Role, error)
	// ListAssignable returns active, non-deleted users whose role may
	// receive tickets, sorted by ID; optionally narrowed to a
	// department's membership.
	ListAssignable(ctx context.Context, departmentID *int64) ([]domain.User, error)
	DepartmentIDs(ctx context.Context, userID int64) ([]int64, error)
	RoleHasPermission(ctx context.Context, roleID int64, permission string) (bool, error)
}

type userRepository struct {
	db Querier
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (first_name, last_name, email, password_hash, role_id, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.RoleID,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET first_name=$1, last_name=$2, email=$3, password_hash=$4, role_id=$5,
            is_active=$6, updated_at=NOW()
        WHERE id=$7 AND deleted_at IS NULL`
	cmd, err := r.db.Exec(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.RoleID,
		user.IsActive,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const userColumns = `users.id, users.first_name, users.last_name, users.email, users.password_hash,
               users.role_id, roles.name, users.is_active, users.created_at, users.updated_at`

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + `
        FROM users JOIN roles ON users.role_id = roles.id
        WHERE users.id=$1 AND users.deleted_at IS NULL`
	return r.fetch(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + `
        FROM users JOIN roles ON users.role_id = roles.id
        WHERE users.email=$1 AND users.deleted_at IS NULL`
	return r.fetch(ctx, query, email)
}

func (r *userRepository) fetch(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.RoleID,
		&user.RoleName,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	const query = `SELECT id, name, title, description, is_system, sort_order FROM roles WHERE name=$1`
	var role domain.Role
	if err := r.db.QueryRow(ctx, query, name).Scan(
		&role.ID,
		&role.Name,
		&role.Title,
		&role.Description,
		&role.IsSystem,
		&role.SortOrder,
	); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *userRepository) ListAssignable(ctx context.Context, departmentID *int64) ([]domain.User, error) {
	query := `SELECT ` + userColumns + `
        FROM users JOIN roles ON users.role_id = roles.id
        WHERE users.deleted_at IS NULL AND users.is_active AND roles.name = ANY($1)`
	args := []any{domain.AssignableRoles}
	if departmentID != nil {
		args = append(args, *departmentID)
		query += `
          AND EXISTS (SELECT 1 FROM user_departments
                      WHERE user_departments.user_id = users.id AND user_departments.department_id = $2)`
	}
	query += `
        ORDER BY users.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.FirstName,
			&user.LastName,
			&user.Email,
			&user.PasswordHash,
			&user.RoleID,
			&user.RoleName,
			&user.IsActive,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) DepartmentIDs(ctx context.Context, userID int64) ([]int64, error) {
	const query = `SELECT department_id FROM user_departments WHERE user_id=$1 ORDER BY department_id`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *userRepository) RoleHasPermission(ctx context.Context, roleID int64, permission string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM role_permissions
            JOIN permissions ON role_permissions.permission_id = permissions.id
            WHERE role_permissions.role_id=$1 AND permissions.name=$2)`
	var ok bool
	if err := r.db.QueryRow(ctx, query, roleID, permission).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
