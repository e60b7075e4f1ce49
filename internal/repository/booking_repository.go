package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/unidept/presentation-scheduler/internal/models"
)

// BookingRepository provides persistence for presentation bookings.
// Participant sets live in presentation_students / presentation_examiners
// join tables and are loaded alongside every booking row.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingRow struct {
	ID              string    `db:"id"`
	Title           string    `db:"title"`
	Department      string    `db:"department"`
	Date            string    `db:"date"`
	DurationMinutes int       `db:"duration_minutes"`
	StartTime       string    `db:"start_time"`
	EndTime         string    `db:"end_time"`
	NumExaminers    int       `db:"num_examiners"`
	VenueID         string    `db:"venue_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r bookingRow) toModel() models.Booking {
	return models.Booking{
		ID:              r.ID,
		Title:           r.Title,
		Department:      r.Department,
		Date:            r.Date,
		DurationMinutes: r.DurationMinutes,
		TimeRange:       models.TimeRange{StartTime: r.StartTime, EndTime: r.EndTime},
		NumExaminers:    r.NumExaminers,
		VenueID:         r.VenueID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

const (
	bookingColumns         = "id, title, department, date, duration_minutes, start_time, end_time, num_examiners, venue_id, created_at, updated_at"
	bookingColumnsPrefixed = "p.id, p.title, p.department, p.date, p.duration_minutes, p.start_time, p.end_time, p.num_examiners, p.venue_id, p.created_at, p.updated_at"
)

// List returns bookings with optional filtering and pagination.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	base := "FROM presentations WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Date != "" {
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, filter.Date)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.VenueID != "" {
		conditions = append(conditions, fmt.Sprintf("venue_id = $%d", len(args)+1))
		args = append(args, filter.VenueID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"date":       true,
		"start_time": true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", bookingColumns, base, sortBy, order, size, offset)
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	bookings, err := r.attachParticipants(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindByID loads a booking including its participant id sets.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM presentations WHERE id = $1", bookingColumns)
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	bookings, err := r.attachParticipants(ctx, []bookingRow{row})
	if err != nil {
		return nil, err
	}
	return &bookings[0], nil
}

// ListByDate returns every booking on a date, participants included.
// The overlap checker walks this set in memory.
func (r *BookingRepository) ListByDate(ctx context.Context, date string) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM presentations WHERE date = $1 ORDER BY start_time ASC", bookingColumns)
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("list bookings by date: %w", err)
	}
	return r.attachParticipants(ctx, rows)
}

// ListForAvailability returns bookings relevant to an availability
// query: same date, touching the queried venue or intersecting the
// queried participant sets. The department predicate only applies when
// the filter sets one; conflict checks leave it empty so bookings from
// every department are visible.
func (r *BookingRepository) ListForAvailability(ctx context.Context, filter models.AvailabilityFilter) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM presentations p
WHERE p.date = $1
  AND ($2 = '' OR p.department = $2)
  AND (
    ($3 <> '' AND p.venue_id = $3)
    OR EXISTS (SELECT 1 FROM presentation_students ps WHERE ps.presentation_id = p.id AND ps.student_id = ANY($4))
    OR EXISTS (SELECT 1 FROM presentation_examiners pe WHERE pe.presentation_id = p.id AND pe.examiner_id = ANY($5))
  )
ORDER BY p.start_time ASC`, bookingColumnsPrefixed)
	var rows []bookingRow
	err := r.db.SelectContext(ctx, &rows, query,
		filter.Date,
		filter.Department,
		filter.VenueID,
		pq.Array(filter.StudentIDs),
		pq.Array(filter.ExaminerIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings for availability: %w", err)
	}
	return r.attachParticipants(ctx, rows)
}

// ListByExaminer returns bookings referencing an examiner.
func (r *BookingRepository) ListByExaminer(ctx context.Context, examinerID string) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM presentations p
JOIN presentation_examiners pe ON pe.presentation_id = p.id
WHERE pe.examiner_id = $1 ORDER BY p.date ASC, p.start_time ASC`, bookingColumnsPrefixed)
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, examinerID); err != nil {
		return nil, fmt.Errorf("list bookings by examiner: %w", err)
	}
	return r.attachParticipants(ctx, rows)
}

// ListByStudent returns bookings referencing a student.
func (r *BookingRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM presentations p
JOIN presentation_students ps ON ps.presentation_id = p.id
WHERE ps.student_id = $1 ORDER BY p.date ASC, p.start_time ASC`, bookingColumnsPrefixed)
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list bookings by student: %w", err)
	}
	return r.attachParticipants(ctx, rows)
}

// Create stores a booking and its participant rows in one transaction.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create booking: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO presentations (id, title, department, date, duration_minutes, start_time, end_time, num_examiners, venue_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err = tx.ExecContext(ctx, insert,
		booking.ID, booking.Title, booking.Department, booking.Date, booking.DurationMinutes,
		booking.TimeRange.StartTime, booking.TimeRange.EndTime, booking.NumExaminers, booking.VenueID,
		booking.CreatedAt, booking.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	if err = r.insertParticipants(ctx, tx, booking); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create booking: %w", err)
	}
	return nil
}

// Update rewrites a booking and replaces its participant rows.
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update booking: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE presentations SET title = $2, department = $3, date = $4, duration_minutes = $5, start_time = $6, end_time = $7, num_examiners = $8, venue_id = $9, updated_at = $10 WHERE id = $1`
	var res sql.Result
	if res, err = tx.ExecContext(ctx, update,
		booking.ID, booking.Title, booking.Department, booking.Date, booking.DurationMinutes,
		booking.TimeRange.StartTime, booking.TimeRange.EndTime, booking.NumExaminers, booking.VenueID,
		booking.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if affected, affErr := res.RowsAffected(); affErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM presentation_students WHERE presentation_id = $1", booking.ID); err != nil {
		return fmt.Errorf("clear booking students: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM presentation_examiners WHERE presentation_id = $1", booking.ID); err != nil {
		return fmt.Errorf("clear booking examiners: %w", err)
	}
	if err = r.insertParticipants(ctx, tx, booking); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update booking: %w", err)
	}
	return nil
}

// UpdateSlot moves a booking to a new date/time/venue, leaving metadata
// and participants untouched. Used by approved reschedule requests.
func (r *BookingRepository) UpdateSlot(ctx context.Context, id, date string, timeRange models.TimeRange, venueID string) error {
	const query = `UPDATE presentations SET date = $2, start_time = $3, end_time = $4, venue_id = $5, updated_at = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, date, timeRange.StartTime, timeRange.EndTime, venueID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update booking slot: %w", err)
	}
	if affected, affErr := res.RowsAffected(); affErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a booking; join rows cascade via foreign keys.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM presentations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if affected, affErr := res.RowsAffected(); affErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *BookingRepository) insertParticipants(ctx context.Context, tx *sqlx.Tx, booking *models.Booking) error {
	for _, studentID := range booking.StudentIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO presentation_students (presentation_id, student_id) VALUES ($1, $2)", booking.ID, studentID); err != nil {
			return fmt.Errorf("insert booking student: %w", err)
		}
	}
	for _, examinerID := range booking.ExaminerIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO presentation_examiners (presentation_id, examiner_id) VALUES ($1, $2)", booking.ID, examinerID); err != nil {
			return fmt.Errorf("insert booking examiner: %w", err)
		}
	}
	return nil
}

type participantRow struct {
	PresentationID string `db:"presentation_id"`
	ParticipantID  string `db:"participant_id"`
}

func (r *BookingRepository) attachParticipants(ctx context.Context, rows []bookingRow) ([]models.Booking, error) {
	bookings := make([]models.Booking, 0, len(rows))
	if len(rows) == 0 {
		return bookings, nil
	}

	ids := make([]string, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		index[row.ID] = len(bookings)
		bookings = append(bookings, row.toModel())
		ids = append(ids, row.ID)
	}

	var students []participantRow
	if err := r.db.SelectContext(ctx, &students,
		"SELECT presentation_id, student_id AS participant_id FROM presentation_students WHERE presentation_id = ANY($1)", pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load booking students: %w", err)
	}
	for _, row := range students {
		i := index[row.PresentationID]
		bookings[i].StudentIDs = append(bookings[i].StudentIDs, row.ParticipantID)
	}

	var examiners []participantRow
	if err := r.db.SelectContext(ctx, &examiners,
		"SELECT presentation_id, examiner_id AS participant_id FROM presentation_examiners WHERE presentation_id = ANY($1)", pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("load booking examiners: %w", err)
	}
	for _, row := range examiners {
		i := index[row.PresentationID]
		bookings[i].ExaminerIDs = append(bookings[i].ExaminerIDs, row.ParticipantID)
	}

	return bookings, nil
}
