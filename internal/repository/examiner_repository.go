package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/unidept/presentation-scheduler/internal/models"
)

// ExaminerRepository provides persistence for examiners.
type ExaminerRepository struct {
	db *sqlx.DB
}

// NewExaminerRepository creates a new examiner repository.
func NewExaminerRepository(db *sqlx.DB) *ExaminerRepository {
	return &ExaminerRepository{db: db}
}

const examinerColumns = "id, code, full_name, email, phone, department, created_at, updated_at"

// List returns examiners with optional filtering and pagination.
func (r *ExaminerRepository) List(ctx context.Context, filter models.ExaminerFilter) ([]models.Examiner, int, error) {
	base := "FROM examiners WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR code ILIKE $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY code ASC LIMIT %d OFFSET %d", examinerColumns, base, size, offset)
	var examiners []models.Examiner
	if err := r.db.SelectContext(ctx, &examiners, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list examiners: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count examiners: %w", err)
	}

	return examiners, total, nil
}

// ListByDepartment returns the department examiner pool in stable
// storage order; the suggestion engine relies on this ordering.
func (r *ExaminerRepository) ListByDepartment(ctx context.Context, department string) ([]models.Examiner, error) {
	query := fmt.Sprintf("SELECT %s FROM examiners WHERE department = $1 ORDER BY created_at ASC, code ASC", examinerColumns)
	var examiners []models.Examiner
	if err := r.db.SelectContext(ctx, &examiners, query, department); err != nil {
		return nil, fmt.Errorf("list examiners by department: %w", err)
	}
	return examiners, nil
}

// FindByID loads an examiner by opaque id.
func (r *ExaminerRepository) FindByID(ctx context.Context, id string) (*models.Examiner, error) {
	query := fmt.Sprintf("SELECT %s FROM examiners WHERE id = $1", examinerColumns)
	var examiner models.Examiner
	if err := r.db.GetContext(ctx, &examiner, query, id); err != nil {
		return nil, err
	}
	return &examiner, nil
}

// FindByIDs resolves a set of opaque ids.
func (r *ExaminerRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Examiner, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM examiners WHERE id = ANY($1) ORDER BY created_at ASC, code ASC", examinerColumns)
	var examiners []models.Examiner
	if err := r.db.SelectContext(ctx, &examiners, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find examiners by ids: %w", err)
	}
	return examiners, nil
}

// FindByCodes translates human-readable codes to examiner records.
func (r *ExaminerRepository) FindByCodes(ctx context.Context, codes []string) ([]models.Examiner, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM examiners WHERE code = ANY($1) ORDER BY created_at ASC, code ASC", examinerColumns)
	var examiners []models.Examiner
	if err := r.db.SelectContext(ctx, &examiners, query, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("find examiners by codes: %w", err)
	}
	return examiners, nil
}

// MaxCodeForYear returns the highest assigned code with the given
// prefix (e.g. "EX2025"), or empty when none exist yet.
func (r *ExaminerRepository) MaxCodeForYear(ctx context.Context, prefix string) (string, error) {
	var code *string
	if err := r.db.GetContext(ctx, &code, "SELECT MAX(code) FROM examiners WHERE code LIKE $1", prefix+"%"); err != nil {
		return "", fmt.Errorf("max examiner code: %w", err)
	}
	if code == nil {
		return "", nil
	}
	return *code, nil
}

// Create stores a new examiner record.
func (r *ExaminerRepository) Create(ctx context.Context, examiner *models.Examiner) error {
	if examiner.ID == "" {
		examiner.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	examiner.CreatedAt = now
	examiner.UpdatedAt = now

	const query = `INSERT INTO examiners (id, code, full_name, email, phone, department, created_at, updated_at)
VALUES (:id, :code, :full_name, :email, :phone, :department, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, examiner); err != nil {
		return fmt.Errorf("create examiner: %w", err)
	}
	return nil
}

// Update rewrites an examiner record.
func (r *ExaminerRepository) Update(ctx context.Context, examiner *models.Examiner) error {
	examiner.UpdatedAt = time.Now().UTC()
	const query = `UPDATE examiners SET full_name = :full_name, email = :email, phone = :phone, department = :department, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, examiner); err != nil {
		return fmt.Errorf("update examiner: %w", err)
	}
	return nil
}

// Delete removes an examiner.
func (r *ExaminerRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM examiners WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete examiner: %w", err)
	}
	return nil
}
