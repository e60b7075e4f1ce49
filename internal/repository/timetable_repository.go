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

// TimetableRepository persists recurring lecture entries. The
// suggestion engine reads it for per-day examiner load; everything else
// is roster upkeep.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const lectureColumns = "id, group_id, module_code, examiner_id, venue_id, day_of_week, start_time, end_time, created_at, updated_at"

// List returns lectures with optional filtering and pagination.
func (r *TimetableRepository) List(ctx context.Context, filter models.LectureFilter) ([]models.Lecture, int, error) {
	base := "FROM lectures WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.ExaminerID != "" {
		conditions = append(conditions, fmt.Sprintf("examiner_id = $%d", len(args)+1))
		args = append(args, filter.ExaminerID)
	}
	if filter.VenueID != "" {
		conditions = append(conditions, fmt.Sprintf("venue_id = $%d", len(args)+1))
		args = append(args, filter.VenueID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week ASC, start_time ASC LIMIT %d OFFSET %d", lectureColumns, base, size, offset)
	var lectures []models.Lecture
	if err := r.db.SelectContext(ctx, &lectures, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lectures: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lectures: %w", err)
	}

	return lectures, total, nil
}

// FindByID loads a lecture by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Lecture, error) {
	query := fmt.Sprintf("SELECT %s FROM lectures WHERE id = $1", lectureColumns)
	var lecture models.Lecture
	if err := r.db.GetContext(ctx, &lecture, query, id); err != nil {
		return nil, err
	}
	return &lecture, nil
}

// ListByExaminer returns lectures taught by an examiner.
func (r *TimetableRepository) ListByExaminer(ctx context.Context, examinerID string) ([]models.Lecture, error) {
	query := fmt.Sprintf("SELECT %s FROM lectures WHERE examiner_id = $1 ORDER BY day_of_week ASC, start_time ASC", lectureColumns)
	var lectures []models.Lecture
	if err := r.db.SelectContext(ctx, &lectures, query, examinerID); err != nil {
		return nil, fmt.Errorf("list lectures by examiner: %w", err)
	}
	return lectures, nil
}

// ListByVenue returns lectures held in a venue.
func (r *TimetableRepository) ListByVenue(ctx context.Context, venueID string) ([]models.Lecture, error) {
	query := fmt.Sprintf("SELECT %s FROM lectures WHERE venue_id = $1 ORDER BY day_of_week ASC, start_time ASC", lectureColumns)
	var lectures []models.Lecture
	if err := r.db.SelectContext(ctx, &lectures, query, venueID); err != nil {
		return nil, fmt.Errorf("list lectures by venue: %w", err)
	}
	return lectures, nil
}

// CountForExaminersOnDay returns how many lectures the given examiners
// collectively teach on a weekday ("MONDAY".."SUNDAY"). This is the
// load score used to rank candidate dates.
func (r *TimetableRepository) CountForExaminersOnDay(ctx context.Context, examinerIDs []string, dayOfWeek string) (int, error) {
	if len(examinerIDs) == 0 {
		return 0, nil
	}
	var count int
	const query = `SELECT COUNT(*) FROM lectures WHERE examiner_id = ANY($1) AND day_of_week = $2`
	if err := r.db.GetContext(ctx, &count, query, pq.Array(examinerIDs), dayOfWeek); err != nil {
		return 0, fmt.Errorf("count lectures for examiners: %w", err)
	}
	return count, nil
}

// Create stores a new lecture entry.
func (r *TimetableRepository) Create(ctx context.Context, lecture *models.Lecture) error {
	if lecture.ID == "" {
		lecture.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lecture.CreatedAt = now
	lecture.UpdatedAt = now

	const query = `INSERT INTO lectures (id, group_id, module_code, examiner_id, venue_id, day_of_week, start_time, end_time, created_at, updated_at)
VALUES (:id, :group_id, :module_code, :examiner_id, :venue_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lecture); err != nil {
		return fmt.Errorf("create lecture: %w", err)
	}
	return nil
}

// Update rewrites a lecture entry.
func (r *TimetableRepository) Update(ctx context.Context, lecture *models.Lecture) error {
	lecture.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lectures SET group_id = :group_id, module_code = :module_code, examiner_id = :examiner_id, venue_id = :venue_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lecture); err != nil {
		return fmt.Errorf("update lecture: %w", err)
	}
	return nil
}

// Delete removes a lecture entry.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM lectures WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete lecture: %w", err)
	}
	return nil
}
