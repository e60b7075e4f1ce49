package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidept/presentation-scheduler/internal/models"
)

func newRescheduleMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func rescheduleMockRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "booking_id", "requested_by_id", "requested_by_role", "date", "start_time", "end_time", "venue_id", "reason", "status", "decided_by", "decided_at", "created_at"}).
		AddRow("r1", "b1", "u1", "EXAMINER", "2026-09-12", "10:00", "11:00", "v2", "venue maintenance", "Pending", nil, nil, time.Now())
}

func TestRescheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRescheduleMock(t)
	defer cleanup()
	repo := NewRescheduleRepository(db)

	mock.ExpectExec("INSERT INTO reschedule_requests").
		WithArgs(sqlmock.AnyArg(), "b1", "u1", models.RoleExaminer, "2026-09-12", "10:00", "11:00", "v2", "venue maintenance", models.RescheduleStatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.RescheduleRequest{
		BookingID:       "b1",
		RequestedByID:   "u1",
		RequestedByRole: models.RoleExaminer,
		Date:            "2026-09-12",
		TimeRange:       models.TimeRange{StartTime: "10:00", EndTime: "11:00"},
		VenueID:         "v2",
		Reason:          "venue maintenance",
		Status:          models.RescheduleStatusPending,
	}
	err := repo.Create(context.Background(), request)
	require.NoError(t, err)
	assert.NotEmpty(t, request.ID)
	assert.False(t, request.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRescheduleMock(t)
	defer cleanup()
	repo := NewRescheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, booking_id, requested_by_id, requested_by_role, date, start_time, end_time, venue_id, reason, status, decided_by, decided_at, created_at FROM reschedule_requests WHERE id = $1")).
		WithArgs("r1").
		WillReturnRows(rescheduleMockRows())

	request, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "b1", request.BookingID)
	assert.Equal(t, models.RescheduleStatusPending, request.Status)
	assert.Equal(t, models.TimeRange{StartTime: "10:00", EndTime: "11:00"}, request.TimeRange)
	assert.Nil(t, request.DecidedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newRescheduleMock(t)
	defer cleanup()
	repo := NewRescheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reschedule_requests WHERE 1=1 AND status IN ($1) ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("Pending").
		WillReturnRows(rescheduleMockRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reschedule_requests WHERE 1=1 AND status IN ($1)")).
		WithArgs("Pending").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.RescheduleFilter{Status: []models.RescheduleStatus{models.RescheduleStatusPending}})
	require.NoError(t, err)
	assert.Len(t, requests, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRescheduleMock(t)
	defer cleanup()
	repo := NewRescheduleRepository(db)

	decidedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reschedule_requests SET status = $2, decided_by = $3, decided_at = $4 WHERE id = $1")).
		WithArgs("r1", "Approved", "admin", decidedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "r1", models.RescheduleStatusApproved, "admin", decidedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newRescheduleMock(t)
	defer cleanup()
	repo := NewRescheduleRepository(db)

	mock.ExpectExec("UPDATE reschedule_requests SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.RescheduleStatusRejected, "admin", time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRescheduleRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newRescheduleMock(t)
	defer cleanup()
	repo := NewRescheduleRepository(db)

	mock.ExpectExec("DELETE FROM reschedule_requests").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
