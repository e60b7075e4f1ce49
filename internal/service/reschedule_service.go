package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unidept/presentation-scheduler/internal/dto"
	"github.com/unidept/presentation-scheduler/internal/models"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
)

type rescheduleRepository interface {
	Create(ctx context.Context, request *models.RescheduleRequest) error
	FindByID(ctx context.Context, id string) (*models.RescheduleRequest, error)
	List(ctx context.Context, filter models.RescheduleFilter) ([]models.RescheduleRequest, int, error)
	UpdateStatus(ctx context.Context, id string, status models.RescheduleStatus, decidedBy string, decidedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type rescheduleBookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	UpdateSlot(ctx context.Context, id, date string, timeRange models.TimeRange, venueID string) error
}

// Principal identifies the authenticated caller of a guarded operation.
type Principal struct {
	ID   string
	Role models.UserRole
}

// RescheduleService runs the Pending -> Approved/Rejected workflow over
// bookings. Approval re-validates the requested slot at decision time;
// a slot lost since the request was filed downgrades it to Rejected
// instead of failing.
type RescheduleService struct {
	repo      rescheduleRepository
	bookings  rescheduleBookingRepository
	checker   slotChecker
	locks     *DateLocker
	metrics   *MetricsService
	validator *validator.Validate
	now       func() time.Time
	logger    *zap.Logger
}

// NewRescheduleService constructs the reschedule service. locks must be
// the same instance the booking service writes under.
func NewRescheduleService(
	repo rescheduleRepository,
	bookings rescheduleBookingRepository,
	checker slotChecker,
	locks *DateLocker,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RescheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewDateLocker()
	}
	return &RescheduleService{
		repo:      repo,
		bookings:  bookings,
		checker:   checker,
		locks:     locks,
		metrics:   metrics,
		validator: validate,
		now:       time.Now,
		logger:    logger,
	}
}

// List returns reschedule requests and pagination metadata.
func (s *RescheduleService) List(ctx context.Context, filter models.RescheduleFilter) ([]models.RescheduleRequest, *models.Pagination, error) {
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reschedule requests")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return requests, pagination, nil
}

// Get returns one reschedule request by id.
func (s *RescheduleService) Get(ctx context.Context, id string) (*models.RescheduleRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "reschedule request not found")
	}
	return request, nil
}

// Create files a Pending reschedule request against an existing booking
// on behalf of the authenticated principal.
func (s *RescheduleService) Create(ctx context.Context, principal Principal, req dto.CreateRescheduleRequest) (*models.RescheduleRequest, error) {
	if principal.ID == "" || principal.Role == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date, time range, venue and reason are required")
	}
	if _, err := parseClock(req.TimeRange.StartTime); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	if _, err := parseClock(req.TimeRange.EndTime); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}

	if _, err := s.bookings.FindByID(ctx, req.BookingID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "booking not found")
	}

	request := &models.RescheduleRequest{
		BookingID:       req.BookingID,
		RequestedByID:   principal.ID,
		RequestedByRole: principal.Role,
		Date:            req.Date,
		TimeRange:       req.TimeRange,
		VenueID:         req.VenueID,
		Reason:          req.Reason,
		Status:          models.RescheduleStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reschedule request")
	}
	return request, nil
}

// Decide resolves a Pending request. Reject always succeeds. Approve
// re-checks availability for the requested slot against the referenced
// booking's current participants; when the slot is gone the request is
// auto-rejected and reported as such, not errored.
func (s *RescheduleService) Decide(ctx context.Context, principal Principal, requestID, action string) (*dto.RescheduleDecision, error) {
	if principal.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}

	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "reschedule request not found")
	}
	if request.Status.Terminal() {
		return nil, appErrors.Wrap(nil, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "reschedule request already decided")
	}

	switch action {
	case dto.RescheduleActionReject:
		return s.reject(ctx, principal, request)
	case dto.RescheduleActionApprove:
		return s.approve(ctx, principal, request)
	default:
		return nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "action must be Approve or Reject")
	}
}

func (s *RescheduleService) reject(ctx context.Context, principal Principal, request *models.RescheduleRequest) (*dto.RescheduleDecision, error) {
	if err := s.transition(ctx, request, models.RescheduleStatusRejected, principal.ID); err != nil {
		return nil, err
	}
	s.metrics.RecordRescheduleDecision("rejected")
	return &dto.RescheduleDecision{Request: request, Message: "reschedule request rejected"}, nil
}

func (s *RescheduleService) approve(ctx context.Context, principal Principal, request *models.RescheduleRequest) (*dto.RescheduleDecision, error) {
	booking, err := s.bookings.FindByID(ctx, request.BookingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "booking referenced by request not found")
	}

	unlock := s.locks.Lock(request.Date)
	defer unlock()

	// Participants come from the booking as it stands now, not from
	// the request; the booking may have been edited since filing. The
	// booking's own slot is excluded so keeping its current window
	// never blocks the move. No department scoping: the check has to
	// see every booking on the date.
	filter := models.AvailabilityFilter{
		Date:        request.Date,
		VenueID:     request.VenueID,
		StudentIDs:  booking.StudentIDs,
		ExaminerIDs: booking.ExaminerIDs,
	}
	available, _, err := s.checker.IsSlotAvailable(ctx, filter, request.TimeRange, booking.ID)
	if err != nil {
		return nil, err
	}

	if !available {
		if err := s.transition(ctx, request, models.RescheduleStatusRejected, principal.ID); err != nil {
			return nil, err
		}
		s.metrics.RecordRescheduleDecision("auto_rejected")
		s.logger.Info("reschedule request auto-rejected",
			zap.String("request_id", request.ID), zap.String("date", request.Date))
		return &dto.RescheduleDecision{
			Request:      request,
			Message:      "time slot no longer available; request auto-rejected",
			AutoRejected: true,
		}, nil
	}

	if err := s.bookings.UpdateSlot(ctx, booking.ID, request.Date, request.TimeRange, request.VenueID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move booking")
	}
	if err := s.transition(ctx, request, models.RescheduleStatusApproved, principal.ID); err != nil {
		return nil, err
	}

	s.metrics.RecordRescheduleDecision("approved")
	s.checker.InvalidateDate(ctx, booking.Date)
	if booking.Date != request.Date {
		s.checker.InvalidateDate(ctx, request.Date)
	}
	return &dto.RescheduleDecision{Request: request, Message: "reschedule request approved"}, nil
}

func (s *RescheduleService) transition(ctx context.Context, request *models.RescheduleRequest, status models.RescheduleStatus, decidedBy string) error {
	decidedAt := s.now()
	if err := s.repo.UpdateStatus(ctx, request.ID, status, decidedBy, decidedAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reschedule request status")
	}
	request.Status = status
	request.DecidedBy = &decidedBy
	request.DecidedAt = &decidedAt
	return nil
}

// Delete removes a reschedule request at any status.
func (s *RescheduleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "reschedule request not found")
	}
	return nil
}
