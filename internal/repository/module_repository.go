package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unidept/presentation-scheduler/internal/models"
)

// ModuleRepository provides persistence for course modules.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository creates a new module repository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

const moduleColumns = "id, code, name, department, lecturer_id, created_at, updated_at"

// List returns modules with optional filtering and pagination.
func (r *ModuleRepository) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error) {
	base := "FROM modules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY code ASC LIMIT %d OFFSET %d", moduleColumns, base, size, offset)
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list modules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count modules: %w", err)
	}

	return modules, total, nil
}

// FindByID loads a module by opaque id.
func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*models.Module, error) {
	query := fmt.Sprintf("SELECT %s FROM modules WHERE id = $1", moduleColumns)
	var module models.Module
	if err := r.db.GetContext(ctx, &module, query, id); err != nil {
		return nil, err
	}
	return &module, nil
}

// MaxCodeForDepartment returns the highest assigned code with the
// given prefix (e.g. "MCS"), or empty when none exist yet.
func (r *ModuleRepository) MaxCodeForDepartment(ctx context.Context, prefix string) (string, error) {
	var code *string
	if err := r.db.GetContext(ctx, &code, "SELECT MAX(code) FROM modules WHERE code LIKE $1", prefix+"%"); err != nil {
		return "", fmt.Errorf("max module code: %w", err)
	}
	if code == nil {
		return "", nil
	}
	return *code, nil
}

// Create stores a new module record.
func (r *ModuleRepository) Create(ctx context.Context, module *models.Module) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	module.CreatedAt = now
	module.UpdatedAt = now

	const query = `INSERT INTO modules (id, code, name, department, lecturer_id, created_at, updated_at)
VALUES (:id, :code, :name, :department, :lecturer_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}

// Update rewrites a module record. The code never changes.
func (r *ModuleRepository) Update(ctx context.Context, module *models.Module) error {
	module.UpdatedAt = time.Now().UTC()
	const query = `UPDATE modules SET name = :name, department = :department, lecturer_id = :lecturer_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	return nil
}

// Delete removes a module.
func (r *ModuleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM modules WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}
