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
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
)

type mockRescheduleRepo struct {
	requests map[string]models.RescheduleRequest
	deleted  []string
}

func (m *mockRescheduleRepo) Create(ctx context.Context, request *models.RescheduleRequest) error {
	if m.requests == nil {
		m.requests = make(map[string]models.RescheduleRequest)
	}
	if request.ID == "" {
		request.ID = "generated"
	}
	m.requests[request.ID] = *request
	return nil
}

func (m *mockRescheduleRepo) FindByID(ctx context.Context, id string) (*models.RescheduleRequest, error) {
	if r, ok := m.requests[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRescheduleRepo) List(ctx context.Context, filter models.RescheduleFilter) ([]models.RescheduleRequest, int, error) {
	out := make([]models.RescheduleRequest, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockRescheduleRepo) UpdateStatus(ctx context.Context, id string, status models.RescheduleStatus, decidedBy string, decidedAt time.Time) error {
	r, ok := m.requests[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = status
	r.DecidedBy = &decidedBy
	r.DecidedAt = &decidedAt
	m.requests[id] = r
	return nil
}

func (m *mockRescheduleRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.requests[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.requests, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockRescheduleBookings struct {
	bookings   map[string]models.Booking
	slotMoves  []string
	movedDate  string
	movedRange models.TimeRange
	movedVenue string
}

func (m *mockRescheduleBookings) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRescheduleBookings) UpdateSlot(ctx context.Context, id, date string, timeRange models.TimeRange, venueID string) error {
	b, ok := m.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	b.Date = date
	b.TimeRange = timeRange
	b.VenueID = venueID
	m.bookings[id] = b
	m.slotMoves = append(m.slotMoves, id)
	m.movedDate = date
	m.movedRange = timeRange
	m.movedVenue = venueID
	return nil
}

var rescheduleNow = time.Date(2026, time.September, 7, 14, 30, 0, 0, time.UTC)

func newTestRescheduleService(repo *mockRescheduleRepo, bookings *mockRescheduleBookings, checker *mockSlotChecker) *RescheduleService {
	svc := NewRescheduleService(repo, bookings, checker, NewDateLocker(), nil, nil, nil)
	svc.now = func() time.Time { return rescheduleNow }
	return svc
}

func rescheduleTarget() *mockRescheduleBookings {
	return &mockRescheduleBookings{bookings: map[string]models.Booking{
		"b1": {
			ID: "b1", Department: "CS", Date: "2026-09-10",
			TimeRange:   models.TimeRange{StartTime: "09:00", EndTime: "10:00"},
			VenueID:     "v1",
			StudentIDs:  []string{"s1"},
			ExaminerIDs: []string{"e1", "e2"},
		},
	}}
}

func pendingRequest() models.RescheduleRequest {
	return models.RescheduleRequest{
		ID:              "r1",
		BookingID:       "b1",
		RequestedByID:   "u1",
		RequestedByRole: models.RoleExaminer,
		Date:            "2026-09-12",
		TimeRange:       models.TimeRange{StartTime: "10:00", EndTime: "11:00"},
		VenueID:         "v2",
		Reason:          "venue maintenance",
		Status:          models.RescheduleStatusPending,
	}
}

func TestRescheduleCreate(t *testing.T) {
	repo := &mockRescheduleRepo{}
	svc := newTestRescheduleService(repo, rescheduleTarget(), &mockSlotChecker{})

	principal := Principal{ID: "u1", Role: models.RoleExaminer}
	request, err := svc.Create(context.Background(), principal, dto.CreateRescheduleRequest{
		BookingID: "b1",
		Date:      "2026-09-12",
		TimeRange: models.TimeRange{StartTime: "10:00", EndTime: "11:00"},
		VenueID:   "v2",
		Reason:    "venue maintenance",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RescheduleStatusPending, request.Status)
	assert.Equal(t, "u1", request.RequestedByID)
	assert.Equal(t, models.RoleExaminer, request.RequestedByRole)
	assert.Len(t, repo.requests, 1)
}

func TestRescheduleCreateUnauthenticated(t *testing.T) {
	svc := newTestRescheduleService(&mockRescheduleRepo{}, rescheduleTarget(), &mockSlotChecker{})

	_, err := svc.Create(context.Background(), Principal{}, dto.CreateRescheduleRequest{
		BookingID: "b1", Date: "2026-09-12",
		TimeRange: models.TimeRange{StartTime: "10:00", EndTime: "11:00"},
		VenueID:   "v2", Reason: "clash",
	})
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestRescheduleCreateUnknownBooking(t *testing.T) {
	svc := newTestRescheduleService(&mockRescheduleRepo{}, &mockRescheduleBookings{}, &mockSlotChecker{})

	_, err := svc.Create(context.Background(), Principal{ID: "u1", Role: models.RoleExaminer}, dto.CreateRescheduleRequest{
		BookingID: "missing", Date: "2026-09-12",
		TimeRange: models.TimeRange{StartTime: "10:00", EndTime: "11:00"},
		VenueID:   "v2", Reason: "clash",
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "booking not found")
}

func TestRescheduleCreateRejectsMalformedTime(t *testing.T) {
	svc := newTestRescheduleService(&mockRescheduleRepo{}, rescheduleTarget(), &mockSlotChecker{})

	_, err := svc.Create(context.Background(), Principal{ID: "u1", Role: models.RoleExaminer}, dto.CreateRescheduleRequest{
		BookingID: "b1", Date: "2026-09-12",
		TimeRange: models.TimeRange{StartTime: "25:00", EndTime: "11:00"},
		VenueID:   "v2", Reason: "clash",
	})
	require.Error(t, err)
}

func TestRescheduleApprove(t *testing.T) {
	repo := &mockRescheduleRepo{requests: map[string]models.RescheduleRequest{"r1": pendingRequest()}}
	bookings := rescheduleTarget()
	checker := &mockSlotChecker{available: true}
	svc := newTestRescheduleService(repo, bookings, checker)

	decision, err := svc.Decide(context.Background(), Principal{ID: "admin", Role: models.RoleAdmin}, "r1", dto.RescheduleActionApprove)
	require.NoError(t, err)
	assert.False(t, decision.AutoRejected)
	assert.Equal(t, models.RescheduleStatusApproved, decision.Request.Status)
	require.NotNil(t, decision.Request.DecidedBy)
	assert.Equal(t, "admin", *decision.Request.DecidedBy)
	assert.Equal(t, rescheduleNow, *decision.Request.DecidedAt)

	// The booking moved to the requested slot.
	assert.Equal(t, []string{"b1"}, bookings.slotMoves)
	assert.Equal(t, "2026-09-12", bookings.movedDate)
	assert.Equal(t, models.TimeRange{StartTime: "10:00", EndTime: "11:00"}, bookings.movedRange)
	assert.Equal(t, "v2", bookings.movedVenue)

	// Availability ran against the booking's current participants with
	// the booking itself excluded, and both dates were invalidated.
	assert.Equal(t, "b1", checker.lastExclude)
	assert.ElementsMatch(t, []string{"e1", "e2"}, checker.lastFilter.ExaminerIDs)
	assert.Empty(t, checker.lastFilter.Department, "conflict check must see all departments")
	assert.ElementsMatch(t, []string{"2026-09-10", "2026-09-12"}, checker.invalidated)
}

func TestRescheduleApproveAutoRejectsLostSlot(t *testing.T) {
	repo := &mockRescheduleRepo{requests: map[string]models.RescheduleRequest{"r1": pendingRequest()}}
	bookings := rescheduleTarget()
	checker := &mockSlotChecker{available: false}
	svc := newTestRescheduleService(repo, bookings, checker)

	decision, err := svc.Decide(context.Background(), Principal{ID: "admin", Role: models.RoleAdmin}, "r1", dto.RescheduleActionApprove)
	require.NoError(t, err, "a lost slot downgrades the request, it does not error")
	assert.True(t, decision.AutoRejected)
	assert.Equal(t, "time slot no longer available; request auto-rejected", decision.Message)
	assert.Equal(t, models.RescheduleStatusRejected, decision.Request.Status)
	assert.Empty(t, bookings.slotMoves, "booking must not move on auto-reject")
	assert.Empty(t, checker.invalidated)
}

func TestRescheduleReject(t *testing.T) {
	repo := &mockRescheduleRepo{requests: map[string]models.RescheduleRequest{"r1": pendingRequest()}}
	bookings := rescheduleTarget()
	checker := &mockSlotChecker{available: true}
	svc := newTestRescheduleService(repo, bookings, checker)

	decision, err := svc.Decide(context.Background(), Principal{ID: "admin", Role: models.RoleAdmin}, "r1", dto.RescheduleActionReject)
	require.NoError(t, err)
	assert.False(t, decision.AutoRejected)
	assert.Equal(t, models.RescheduleStatusRejected, decision.Request.Status)
	assert.Zero(t, checker.checks, "reject never consults availability")
	assert.Empty(t, bookings.slotMoves)
}

func TestRescheduleDecideAlreadyDecided(t *testing.T) {
	decided := pendingRequest()
	decided.Status = models.RescheduleStatusApproved
	repo := &mockRescheduleRepo{requests: map[string]models.RescheduleRequest{"r1": decided}}
	svc := newTestRescheduleService(repo, rescheduleTarget(), &mockSlotChecker{available: true})

	_, err := svc.Decide(context.Background(), Principal{ID: "admin", Role: models.RoleAdmin}, "r1", dto.RescheduleActionApprove)
	require.Error(t, err)
	assert.ErrorContains(t, err, "already decided")
}

func TestRescheduleDecideUnknownAction(t *testing.T) {
	repo := &mockRescheduleRepo{requests: map[string]models.RescheduleRequest{"r1": pendingRequest()}}
	svc := newTestRescheduleService(repo, rescheduleTarget(), &mockSlotChecker{available: true})

	_, err := svc.Decide(context.Background(), Principal{ID: "admin", Role: models.RoleAdmin}, "r1", "Postpone")
	require.Error(t, err)
	assert.ErrorContains(t, err, "action must be Approve or Reject")
}

func TestRescheduleDelete(t *testing.T) {
	repo := &mockRescheduleRepo{requests: map[string]models.RescheduleRequest{"r1": pendingRequest()}}
	svc := newTestRescheduleService(repo, rescheduleTarget(), &mockSlotChecker{})

	require.NoError(t, svc.Delete(context.Background(), "r1"))
	assert.Equal(t, []string{"r1"}, repo.deleted)
}
