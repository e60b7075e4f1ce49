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

func newBookingMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func bookingMockRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "department", "date", "duration_minutes", "start_time", "end_time", "num_examiners", "venue_id", "created_at", "updated_at"}).
		AddRow("b1", "Final Defense", "CS", "2026-09-10", 60, "09:00", "10:00", 2, "v1", time.Now(), time.Now())
}

func expectParticipantLoads(mock sqlmock.Sqlmock, students, examiners *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT presentation_id, student_id AS participant_id FROM presentation_students WHERE presentation_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(students)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT presentation_id, examiner_id AS participant_id FROM presentation_examiners WHERE presentation_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(examiners)
}

func TestBookingRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, department, date, duration_minutes, start_time, end_time, num_examiners, venue_id, created_at, updated_at FROM presentations WHERE id = $1")).
		WithArgs("b1").
		WillReturnRows(bookingMockRows())
	expectParticipantLoads(mock,
		sqlmock.NewRows([]string{"presentation_id", "participant_id"}).AddRow("b1", "s1"),
		sqlmock.NewRows([]string{"presentation_id", "participant_id"}).AddRow("b1", "e1").AddRow("b1", "e2"))

	booking, err := repo.FindByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", booking.ID)
	assert.Equal(t, models.TimeRange{StartTime: "09:00", EndTime: "10:00"}, booking.TimeRange)
	assert.Equal(t, []string{"s1"}, booking.StudentIDs)
	assert.Equal(t, []string{"e1", "e2"}, booking.ExaminerIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("FROM presentations WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBookingRepositoryListByDate(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM presentations WHERE date = $1 ORDER BY start_time ASC")).
		WithArgs("2026-09-10").
		WillReturnRows(bookingMockRows())
	expectParticipantLoads(mock,
		sqlmock.NewRows([]string{"presentation_id", "participant_id"}).AddRow("b1", "s1"),
		sqlmock.NewRows([]string{"presentation_id", "participant_id"}))

	bookings, err := repo.ListByDate(context.Background(), "2026-09-10")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, []string{"s1"}, bookings[0].StudentIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListForAvailability(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("FROM presentations p").
		WithArgs("2026-09-10", "CS", "v1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(bookingMockRows())
	expectParticipantLoads(mock,
		sqlmock.NewRows([]string{"presentation_id", "participant_id"}),
		sqlmock.NewRows([]string{"presentation_id", "participant_id"}).AddRow("b1", "e1"))

	bookings, err := repo.ListForAvailability(context.Background(), models.AvailabilityFilter{
		Date:        "2026-09-10",
		Department:  "CS",
		VenueID:     "v1",
		StudentIDs:  []string{"s1"},
		ExaminerIDs: []string{"e1"},
	})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, []string{"e1"}, bookings[0].ExaminerIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO presentations").
		WithArgs(sqlmock.AnyArg(), "Final Defense", "CS", "2026-09-10", 60, "09:00", "10:00", 2, "v1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO presentation_students").
		WithArgs(sqlmock.AnyArg(), "s1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO presentation_examiners").
		WithArgs(sqlmock.AnyArg(), "e1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO presentation_examiners").
		WithArgs(sqlmock.AnyArg(), "e2").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	booking := &models.Booking{
		Title:           "Final Defense",
		Department:      "CS",
		Date:            "2026-09-10",
		DurationMinutes: 60,
		TimeRange:       models.TimeRange{StartTime: "09:00", EndTime: "10:00"},
		NumExaminers:    2,
		VenueID:         "v1",
		StudentIDs:      []string{"s1"},
		ExaminerIDs:     []string{"e1", "e2"},
	}
	err := repo.Create(context.Background(), booking)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateRollsBackOnParticipantFailure(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO presentations").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO presentation_students").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Booking{
		Title: "Final Defense", Department: "CS", Date: "2026-09-10", DurationMinutes: 60,
		TimeRange: models.TimeRange{StartTime: "09:00", EndTime: "10:00"},
		VenueID:   "v1", StudentIDs: []string{"s1"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateSlot(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE presentations SET date = $2, start_time = $3, end_time = $4, venue_id = $5, updated_at = $6 WHERE id = $1")).
		WithArgs("b1", "2026-09-12", "10:00", "11:00", "v2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSlot(context.Background(), "b1", "2026-09-12", models.TimeRange{StartTime: "10:00", EndTime: "11:00"}, "v2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateSlotNotFound(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("UPDATE presentations SET date").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateSlot(context.Background(), "missing", "2026-09-12", models.TimeRange{StartTime: "10:00", EndTime: "11:00"}, "v2")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBookingRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("DELETE FROM presentations").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
