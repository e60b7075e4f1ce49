package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidept/presentation-scheduler/internal/dto"
	"github.com/unidept/presentation-scheduler/internal/models"
)

type mockSuggestionBookings struct {
	byID   map[string]*models.Booking
	byDate map[string][]models.Booking
}

func (m *mockSuggestionBookings) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if b, ok := m.byID[id]; ok {
		return b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSuggestionBookings) ListByDate(ctx context.Context, date string) ([]models.Booking, error) {
	return m.byDate[date], nil
}

type mockSuggestionStudents struct {
	students map[string]models.Student
}

func (m *mockSuggestionStudents) FindByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	var found []models.Student
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			found = append(found, s)
		}
	}
	return found, nil
}

type mockSuggestionExaminers struct {
	byDept map[string][]models.Examiner
}

func (m *mockSuggestionExaminers) ListByDepartment(ctx context.Context, department string) ([]models.Examiner, error) {
	return m.byDept[department], nil
}

type mockSuggestionVenues struct {
	venues []models.Venue
}

func (m *mockSuggestionVenues) List(ctx context.Context) ([]models.Venue, error) {
	return m.venues, nil
}

type mockSuggestionTimetables struct {
	countsByDay map[string]int
	queriedDays []string
}

func (m *mockSuggestionTimetables) CountForExaminersOnDay(ctx context.Context, examinerIDs []string, dayOfWeek string) (int, error) {
	m.queriedDays = append(m.queriedDays, dayOfWeek)
	return m.countsByDay[dayOfWeek], nil
}

// Monday, so a 14-day window covers two of every weekday.
var suggestionNow = time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC)

func newTestSuggestionService(
	bookings *mockSuggestionBookings,
	students *mockSuggestionStudents,
	examiners *mockSuggestionExaminers,
	venues *mockSuggestionVenues,
	timetables *mockSuggestionTimetables,
) *SuggestionService {
	if bookings.byID == nil {
		bookings.byID = make(map[string]*models.Booking)
	}
	if bookings.byDate == nil {
		bookings.byDate = make(map[string][]models.Booking)
	}
	svc := NewSuggestionService(bookings, students, examiners, venues, timetables, testGrid(), nil, nil)
	svc.now = func() time.Time { return suggestionNow }
	return svc
}

func csStudents() *mockSuggestionStudents {
	return &mockSuggestionStudents{students: map[string]models.Student{
		"s1": {ID: "s1", Code: "ST001", FullName: "Student One", Department: "CS"},
		"s2": {ID: "s2", Code: "ST002", FullName: "Student Two", Department: "CS"},
	}}
}

func csExaminers(ids ...string) *mockSuggestionExaminers {
	pool := make([]models.Examiner, len(ids))
	for i, id := range ids {
		pool[i] = models.Examiner{ID: id, Code: "EX-" + id, Department: "CS"}
	}
	return &mockSuggestionExaminers{byDept: map[string][]models.Examiner{"CS": pool}}
}

func twoVenues() *mockSuggestionVenues {
	return &mockSuggestionVenues{venues: []models.Venue{
		{ID: "v1", Code: "R101"},
		{ID: "v2", Code: "R102"},
	}}
}

func TestSuggestNoValidStudents(t *testing.T) {
	svc := newTestSuggestionService(&mockSuggestionBookings{}, &mockSuggestionStudents{}, csExaminers("e1"), twoVenues(), &mockSuggestionTimetables{})

	_, err := svc.Suggest(context.Background(), dto.SuggestSlotRequest{StudentIDs: []string{"missing"}, NumExaminers: 1, DurationMinutes: 60})
	require.Error(t, err)
	assert.ErrorContains(t, err, "no valid students")
}

func TestSuggestNotEnoughExaminers(t *testing.T) {
	svc := newTestSuggestionService(&mockSuggestionBookings{}, csStudents(), csExaminers("e1"), twoVenues(), &mockSuggestionTimetables{})

	_, err := svc.Suggest(context.Background(), dto.SuggestSlotRequest{StudentIDs: []string{"s1"}, NumExaminers: 2, DurationMinutes: 60})
	require.Error(t, err)
	assert.ErrorContains(t, err, "not enough examiners in department")
}

func TestSuggestNoVenues(t *testing.T) {
	svc := newTestSuggestionService(&mockSuggestionBookings{}, csStudents(), csExaminers("e1"), &mockSuggestionVenues{}, &mockSuggestionTimetables{})

	_, err := svc.Suggest(context.Background(), dto.SuggestSlotRequest{StudentIDs: []string{"s1"}, NumExaminers: 1, DurationMinutes: 60})
	require.Error(t, err)
	assert.ErrorContains(t, err, "no venues exist")
}

func TestSuggestPicksLightestLectureDay(t *testing.T) {
	timetables := &mockSuggestionTimetables{countsByDay: map[string]int{
		"MONDAY": 3, "TUESDAY": 3, "WEDNESDAY": 0, "THURSDAY": 3,
		"FRIDAY": 3, "SATURDAY": 3, "SUNDAY": 3,
	}}
	svc := newTestSuggestionService(&mockSuggestionBookings{}, csStudents(), csExaminers("e1", "e2"), twoVenues(), timetables)

	resp, err := svc.Suggest(context.Background(), dto.SuggestSlotRequest{StudentIDs: []string{"s1"}, NumExaminers: 2, DurationMinutes: 60})
	require.NoError(t, err)
	// The first Wednesday in the window, not the second.
	assert.Equal(t, "2026-09-09", resp.Date)
	assert.Equal(t, "CS", resp.Department)
	assert.Len(t, resp.Examiners, 2)
	assert.Equal(t, "v1", resp.Venue.ID)
	assert.Equal(t, models.TimeRange{StartTime: "08:00", EndTime: "09:00"}, resp.TimeRange)
	assert.Len(t, timetables.queriedDays, 14)
}

func TestSuggestTieBreaksToEarliestDate(t *testing.T) {
	svc := newTestSuggestionService(&mockSuggestionBookings{}, csStudents(), csExaminers("e1"), twoVenues(), &mockSuggestionTimetables{})

	resp, err := svc.Suggest(context.Background(), dto.SuggestSlotRequest{StudentIDs: []string{"s1"}, NumExaminers: 1, DurationMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, suggestionNow.Format("2006-01-02"), resp.Date)
}

func TestSuggestReusesPairedVenue(t *testing.T) {
	date := suggestionNow.Format("2006-01-02")
	bookings := &mockSuggestionBookings{byDate: map[string][]models.Booking{
		date: {booking("b1", "v2", "09:00", "10:00", []string{"sx"}, []string{"e1"})},
	}}
	svc := newTestSuggestionService(bookings, csStudents(), csExaminers("e1", "e2"), twoVenues(), &mockSuggestionTimetables{})

	resp, err := svc.Suggest(context.Background(), dto.SuggestSlotRequest{StudentIDs: []string{"s1"}, NumExaminers: 1, DurationMinutes: 60})
	require.NoError(t, err)
	// e1 already sits in v2 that day, so the 08:00 slot keeps the pairing
	// instead of opening v1 with e2.
	require.Len(t, resp.Examiners, 1)
	assert.Equal(t, "e1", resp.Examiners[0].ID)
	assert.Equal(t, "v2", resp.Venue.ID)
	assert.Equal(t, models.TimeRange{StartTime: "08:00", EndTime: "09:00"}, resp.TimeRange)
}

func TestSuggestFallsBackToUncommittedExaminers(t *testing.T) {
	date := suggestionNow.Format("2006-01-02")
	bookings := &mockSuggestionBookings{byDate: map[string][]models.Booking{
		date: {booking("b1", "v1", "08:00", "18:00", []string{"sx"}, []string{"e1"})},
	}}
	svc := newTestSuggestionService(bookings, csStudents(), csExaminers("e1", "e2"), twoVenues(), &mockSuggestionTimetables{})

	resp, err := svc.Suggest(context.Background(), dto.SuggestSlotRequest{StudentIDs: []string{"s1"}, NumExaminers: 1, DurationMinutes: 60})
	require.NoError(t, err)
	// e1 is busy all day and v1 occupied; the uncommitted e2 goes to v2.
	require.Len(t, resp.Examiners, 1)
	assert.Equal(t, "e2", resp.Examiners[0].ID)
	assert.Equal(t, "v2", resp.Venue.ID)
}

func TestSuggestSkipsSlotsWhereStudentBusy(t *testing.T) {
	date := suggestionNow.Format("2006-01-02")
	bookings := &mockSuggestionBookings{byDate: map[string][]models.Booking{
		date: {booking("b1", "v2", "08:00", "09:00", []string{"s1"}, []string{"other"})},
	}}
	svc := newTestSuggestionService(bookings, csStudents(), csExaminers("e1"), twoVenues(), &mockSuggestionTimetables{})

	resp, err := svc.Suggest(context.Background(), dto.SuggestSlotRequest{StudentIDs: []string{"s1"}, NumExaminers: 1, DurationMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, "09:00", resp.TimeRange.StartTime)
}

func TestSuggestNoSlotOnSelectedDate(t *testing.T) {
	date := suggestionNow.Format("2006-01-02")
	bookings := &mockSuggestionBookings{byDate: map[string][]models.Booking{
		date: {booking("b1", "v1", "08:00", "18:00", []string{"s1"}, []string{"other"})},
	}}
	svc := newTestSuggestionService(bookings, csStudents(), csExaminers("e1"), twoVenues(), &mockSuggestionTimetables{})

	_, err := svc.Suggest(context.Background(), dto.SuggestSlotRequest{StudentIDs: []string{"s1"}, NumExaminers: 1, DurationMinutes: 60})
	require.Error(t, err)
	assert.ErrorContains(t, err, "no suitable time slot on the selected date")
}

func TestSuggestForRescheduleExcludesOwnBooking(t *testing.T) {
	tomorrow := suggestionNow.AddDate(0, 0, 1).Format("2006-01-02")
	target := &models.Booking{
		ID:              "b1",
		Department:      "CS",
		Date:            tomorrow,
		DurationMinutes: 600,
		TimeRange:       models.TimeRange{StartTime: "08:00", EndTime: "18:00"},
		NumExaminers:    1,
		VenueID:         "v1",
		StudentIDs:      []string{"s1"},
		ExaminerIDs:     []string{"e1"},
	}
	bookings := &mockSuggestionBookings{
		byID:   map[string]*models.Booking{"b1": target},
		byDate: map[string][]models.Booking{tomorrow: {*target}},
	}
	svc := newTestSuggestionService(bookings, csStudents(), csExaminers("e1", "e2"), twoVenues(), &mockSuggestionTimetables{})

	resp, err := svc.SuggestForReschedule(context.Background(), "b1")
	require.NoError(t, err)
	// The booking fills its own day; with self-exclusion the whole
	// operating day is open again.
	assert.Equal(t, tomorrow, resp.Date)
	assert.Equal(t, models.TimeRange{StartTime: "08:00", EndTime: "18:00"}, resp.TimeRange)
	require.Len(t, resp.Examiners, 1)
}

func TestSuggestForRescheduleUnknownBooking(t *testing.T) {
	svc := newTestSuggestionService(&mockSuggestionBookings{}, csStudents(), csExaminers("e1"), twoVenues(), &mockSuggestionTimetables{})

	_, err := svc.SuggestForReschedule(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorContains(t, err, "booking not found")
}
