package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unidept/presentation-scheduler/internal/models"
)

// RescheduleRepository persists reschedule requests.
type RescheduleRepository struct {
	db *sqlx.DB
}

// NewRescheduleRepository creates a new reschedule repository.
func NewRescheduleRepository(db *sqlx.DB) *RescheduleRepository {
	return &RescheduleRepository{db: db}
}

type rescheduleRow struct {
	ID              string          `db:"id"`
	BookingID       string          `db:"booking_id"`
	RequestedByID   string          `db:"requested_by_id"`
	RequestedByRole models.UserRole `db:"requested_by_role"`
	Date            string          `db:"date"`
	StartTime       string          `db:"start_time"`
	EndTime         string          `db:"end_time"`
	VenueID         string          `db:"venue_id"`
	Reason          string          `db:"reason"`
	Status          string          `db:"status"`
	DecidedBy       *string         `db:"decided_by"`
	DecidedAt       *time.Time      `db:"decided_at"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r rescheduleRow) toModel() models.RescheduleRequest {
	return models.RescheduleRequest{
		ID:              r.ID,
		BookingID:       r.BookingID,
		RequestedByID:   r.RequestedByID,
		RequestedByRole: r.RequestedByRole,
		Date:            r.Date,
		TimeRange:       models.TimeRange{StartTime: r.StartTime, EndTime: r.EndTime},
		VenueID:         r.VenueID,
		Reason:          r.Reason,
		Status:          models.RescheduleStatus(r.Status),
		DecidedBy:       r.DecidedBy,
		DecidedAt:       r.DecidedAt,
		CreatedAt:       r.CreatedAt,
	}
}

const rescheduleColumns = "id, booking_id, requested_by_id, requested_by_role, date, start_time, end_time, venue_id, reason, status, decided_by, decided_at, created_at"

// Create stores a new reschedule request.
func (r *RescheduleRepository) Create(ctx context.Context, request *models.RescheduleRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO reschedule_requests (id, booking_id, requested_by_id, requested_by_role, date, start_time, end_time, venue_id, reason, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query,
		request.ID, request.BookingID, request.RequestedByID, request.RequestedByRole,
		request.Date, request.TimeRange.StartTime, request.TimeRange.EndTime, request.VenueID,
		request.Reason, request.Status, request.CreatedAt,
	); err != nil {
		return fmt.Errorf("create reschedule request: %w", err)
	}
	return nil
}

// FindByID loads a reschedule request by id.
func (r *RescheduleRepository) FindByID(ctx context.Context, id string) (*models.RescheduleRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM reschedule_requests WHERE id = $1", rescheduleColumns)
	var row rescheduleRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	request := row.toModel()
	return &request, nil
}

// List returns reschedule requests matching the filter, newest first.
func (r *RescheduleRepository) List(ctx context.Context, filter models.RescheduleFilter) ([]models.RescheduleRequest, int, error) {
	base := "FROM reschedule_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if len(filter.Status) > 0 {
		placeholders := make([]string, 0, len(filter.Status))
		for _, status := range filter.Status {
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
			args = append(args, string(status))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.BookingID != "" {
		conditions = append(conditions, fmt.Sprintf("booking_id = $%d", len(args)+1))
		args = append(args, filter.BookingID)
	}
	if filter.RequestedBy != "" {
		conditions = append(conditions, fmt.Sprintf("requested_by_id = $%d", len(args)+1))
		args = append(args, filter.RequestedBy)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", rescheduleColumns, base, size, offset)
	var rows []rescheduleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reschedule requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reschedule requests: %w", err)
	}

	requests := make([]models.RescheduleRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.toModel())
	}
	return requests, total, nil
}

// UpdateStatus records a decision on a pending request.
func (r *RescheduleRepository) UpdateStatus(ctx context.Context, id string, status models.RescheduleStatus, decidedBy string, decidedAt time.Time) error {
	const query = `UPDATE reschedule_requests SET status = $2, decided_by = $3, decided_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status), decidedBy, decidedAt)
	if err != nil {
		return fmt.Errorf("update reschedule status: %w", err)
	}
	if affected, affErr := res.RowsAffected(); affErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a request regardless of status.
func (r *RescheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reschedule_requests WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete reschedule request: %w", err)
	}
	if affected, affErr := res.RowsAffected(); affErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
