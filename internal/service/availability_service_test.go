package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidept/presentation-scheduler/internal/dto"
	"github.com/unidept/presentation-scheduler/internal/models"
)

func testGrid() ScheduleGrid {
	return ScheduleGrid{
		DayStartMin:    8 * 60,
		DayEndMin:      18 * 60,
		StepMinutes:    30,
		LastStartMin:   16*60 + 30,
		SearchSpanDays: 14,
	}
}

type mockAvailabilityRepo struct {
	bookings   []models.Booking
	lastFilter models.AvailabilityFilter
	calls      int
	err        error
}

func (m *mockAvailabilityRepo) ListForAvailability(ctx context.Context, filter models.AvailabilityFilter) ([]models.Booking, error) {
	m.calls++
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.bookings, nil
}

type mockAvailabilityCache struct {
	stored  map[string][]dto.FreeSlot
	sets    int
	deleted []string
}

func (m *mockAvailabilityCache) Get(ctx context.Context, key string, dest interface{}) error {
	slots, ok := m.stored[key]
	if !ok {
		return assert.AnError
	}
	*dest.(*[]dto.FreeSlot) = slots
	return nil
}

func (m *mockAvailabilityCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.stored == nil {
		m.stored = make(map[string][]dto.FreeSlot)
	}
	m.stored[key] = value.([]dto.FreeSlot)
	m.sets++
	return nil
}

func (m *mockAvailabilityCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	return nil
}

func booking(id, venueID, start, end string, studentIDs, examinerIDs []string) models.Booking {
	return models.Booking{
		ID:          id,
		VenueID:     venueID,
		TimeRange:   models.TimeRange{StartTime: start, EndTime: end},
		StudentIDs:  studentIDs,
		ExaminerIDs: examinerIDs,
	}
}

func TestIsSlotAvailableBackToBack(t *testing.T) {
	repo := &mockAvailabilityRepo{bookings: []models.Booking{
		booking("b1", "v1", "09:00", "10:00", []string{"s1"}, []string{"e1"}),
	}}
	svc := NewAvailabilityService(repo, nil, testGrid(), time.Minute, nil)

	filter := models.AvailabilityFilter{Date: "2026-09-10", VenueID: "v1", ExaminerIDs: []string{"e1"}}
	available, conflicts, err := svc.IsSlotAvailable(context.Background(), filter, models.TimeRange{StartTime: "10:00", EndTime: "11:00"}, "")
	require.NoError(t, err)
	assert.True(t, available)
	assert.Empty(t, conflicts)
}

func TestIsSlotAvailableVenueConflict(t *testing.T) {
	repo := &mockAvailabilityRepo{bookings: []models.Booking{
		booking("b1", "v1", "09:00", "10:00", []string{"s1"}, []string{"e1"}),
	}}
	svc := NewAvailabilityService(repo, nil, testGrid(), time.Minute, nil)

	filter := models.AvailabilityFilter{Date: "2026-09-10", VenueID: "v1", ExaminerIDs: []string{"e2"}}
	available, conflicts, err := svc.IsSlotAvailable(context.Background(), filter, models.TimeRange{StartTime: "09:30", EndTime: "10:30"}, "")
	require.NoError(t, err)
	assert.False(t, available)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "b1", conflicts[0].BookingID)
	assert.Equal(t, models.ConflictDimensionVenue, conflicts[0].Dimension)
}

func TestIsSlotAvailableExaminerTakesPrecedence(t *testing.T) {
	repo := &mockAvailabilityRepo{bookings: []models.Booking{
		booking("b1", "v1", "09:00", "10:00", []string{"s1"}, []string{"e1"}),
	}}
	svc := NewAvailabilityService(repo, nil, testGrid(), time.Minute, nil)

	// Shares both the examiner and the venue; the examiner dimension wins.
	filter := models.AvailabilityFilter{Date: "2026-09-10", VenueID: "v1", ExaminerIDs: []string{"e1"}}
	available, conflicts, err := svc.IsSlotAvailable(context.Background(), filter, models.TimeRange{StartTime: "09:00", EndTime: "10:00"}, "")
	require.NoError(t, err)
	assert.False(t, available)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictDimensionExaminer, conflicts[0].Dimension)
}

func TestIsSlotAvailableStudentConflict(t *testing.T) {
	repo := &mockAvailabilityRepo{bookings: []models.Booking{
		booking("b1", "v1", "09:00", "10:00", []string{"s1"}, []string{"e1"}),
	}}
	svc := NewAvailabilityService(repo, nil, testGrid(), time.Minute, nil)

	filter := models.AvailabilityFilter{Date: "2026-09-10", VenueID: "v2", StudentIDs: []string{"s1"}, ExaminerIDs: []string{"e2"}}
	available, conflicts, err := svc.IsSlotAvailable(context.Background(), filter, models.TimeRange{StartTime: "09:30", EndTime: "10:30"}, "")
	require.NoError(t, err)
	assert.False(t, available)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictDimensionStudent, conflicts[0].Dimension)
}

func TestIsSlotAvailableExcludesBooking(t *testing.T) {
	repo := &mockAvailabilityRepo{bookings: []models.Booking{
		booking("b1", "v1", "09:00", "10:00", []string{"s1"}, []string{"e1"}),
	}}
	svc := NewAvailabilityService(repo, nil, testGrid(), time.Minute, nil)

	// Re-checking a booking against its own slot must not self-conflict.
	filter := models.AvailabilityFilter{Date: "2026-09-10", VenueID: "v1", StudentIDs: []string{"s1"}, ExaminerIDs: []string{"e1"}}
	available, conflicts, err := svc.IsSlotAvailable(context.Background(), filter, models.TimeRange{StartTime: "09:00", EndTime: "10:00"}, "b1")
	require.NoError(t, err)
	assert.True(t, available)
	assert.Empty(t, conflicts)
}

func TestIsSlotAvailableRejectsOutsideOperatingDay(t *testing.T) {
	svc := NewAvailabilityService(&mockAvailabilityRepo{}, nil, testGrid(), time.Minute, nil)

	_, _, err := svc.IsSlotAvailable(context.Background(), models.AvailabilityFilter{Date: "2026-09-10"}, models.TimeRange{StartTime: "07:00", EndTime: "08:00"}, "")
	require.Error(t, err)

	_, _, err = svc.IsSlotAvailable(context.Background(), models.AvailabilityFilter{Date: "2026-09-10"}, models.TimeRange{StartTime: "17:30", EndTime: "18:30"}, "")
	require.Error(t, err)
}

func TestIsSlotAvailableRejectsInvertedRange(t *testing.T) {
	svc := NewAvailabilityService(&mockAvailabilityRepo{}, nil, testGrid(), time.Minute, nil)

	_, _, err := svc.IsSlotAvailable(context.Background(), models.AvailabilityFilter{Date: "2026-09-10"}, models.TimeRange{StartTime: "11:00", EndTime: "10:00"}, "")
	require.Error(t, err)
}

func TestFreeSlotsWholeDayWhenEmpty(t *testing.T) {
	svc := NewAvailabilityService(&mockAvailabilityRepo{}, nil, testGrid(), time.Minute, nil)

	slots, err := svc.FreeSlots(context.Background(), models.AvailabilityFilter{Date: "2026-09-10", VenueID: "v1"}, 60)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "08:00 - 18:00", slots[0].TimeSlot)
	assert.True(t, slots[0].Available)
}

func TestFreeSlotsGapWalk(t *testing.T) {
	repo := &mockAvailabilityRepo{bookings: []models.Booking{
		booking("b1", "v1", "13:00", "14:00", nil, nil),
		booking("b2", "v1", "09:00", "10:30", nil, nil),
		booking("b3", "v1", "10:00", "10:15", nil, nil), // nested inside b2
	}}
	svc := NewAvailabilityService(repo, nil, testGrid(), time.Minute, nil)

	slots, err := svc.FreeSlots(context.Background(), models.AvailabilityFilter{Date: "2026-09-10", VenueID: "v1"}, 60)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "08:00 - 09:00", slots[0].TimeSlot)
	assert.Equal(t, "10:30 - 13:00", slots[1].TimeSlot)
	assert.Equal(t, "14:00 - 18:00", slots[2].TimeSlot)
}

func TestFreeSlotsSkipsNarrowGaps(t *testing.T) {
	repo := &mockAvailabilityRepo{bookings: []models.Booking{
		booking("b1", "v1", "08:30", "17:45", nil, nil),
	}}
	svc := NewAvailabilityService(repo, nil, testGrid(), time.Minute, nil)

	slots, err := svc.FreeSlots(context.Background(), models.AvailabilityFilter{Date: "2026-09-10", VenueID: "v1"}, 30)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "08:00 - 08:30", slots[0].TimeSlot)
}

func TestFreeSlotsRejectsNonPositiveDuration(t *testing.T) {
	svc := NewAvailabilityService(&mockAvailabilityRepo{}, nil, testGrid(), time.Minute, nil)

	_, err := svc.FreeSlots(context.Background(), models.AvailabilityFilter{Date: "2026-09-10"}, 0)
	require.Error(t, err)
}

func TestFreeSlotsCaching(t *testing.T) {
	repo := &mockAvailabilityRepo{}
	cache := &mockAvailabilityCache{}
	svc := NewAvailabilityService(repo, cache, testGrid(), time.Minute, nil)

	filter := models.AvailabilityFilter{Date: "2026-09-10", VenueID: "v1"}
	first, err := svc.FreeSlots(context.Background(), filter, 60)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.FreeSlots(context.Background(), filter, 60)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "second call must come from cache")
	assert.Equal(t, first, second)
}

func TestInvalidateDate(t *testing.T) {
	cache := &mockAvailabilityCache{}
	svc := NewAvailabilityService(&mockAvailabilityRepo{}, cache, testGrid(), time.Minute, nil)

	svc.InvalidateDate(context.Background(), "2026-09-10")
	require.Len(t, cache.deleted, 1)
	assert.Equal(t, "availability:2026-09-10:*", cache.deleted[0])
}
