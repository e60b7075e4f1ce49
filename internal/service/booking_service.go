package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unidept/presentation-scheduler/internal/models"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
)

type bookingRepository interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	ListByExaminer(ctx context.Context, examinerID string) ([]models.Booking, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id string) error
}

type bookingStudentRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type bookingExaminerRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Examiner, error)
}

type bookingVenueRepository interface {
	FindByID(ctx context.Context, id string) (*models.Venue, error)
}

type slotChecker interface {
	IsSlotAvailable(ctx context.Context, filter models.AvailabilityFilter, slot models.TimeRange, excludeID string) (bool, []models.SlotConflict, error)
	InvalidateDate(ctx context.Context, date string)
}

type lectureNotifier interface {
	Dispatch(examinerCodes []string, date string)
}

// CreateBookingRequest holds payload for creating bookings.
type CreateBookingRequest struct {
	Title           string           `json:"title" validate:"required"`
	Department      string           `json:"department" validate:"required"`
	Date            string           `json:"date" validate:"required"`
	DurationMinutes int              `json:"duration" validate:"required,min=1"`
	TimeRange       models.TimeRange `json:"timeRange" validate:"required"`
	NumExaminers    int              `json:"num_of_examiners" validate:"required,min=1"`
	VenueID         string           `json:"venue_id" validate:"required"`
	StudentIDs      []string         `json:"student_ids" validate:"required,min=1"`
	ExaminerIDs     []string         `json:"examiner_ids" validate:"required,min=1"`
}

// UpdateBookingRequest holds payload for updating bookings.
type UpdateBookingRequest struct {
	Title           string           `json:"title" validate:"required"`
	Department      string           `json:"department" validate:"required"`
	Date            string           `json:"date" validate:"required"`
	DurationMinutes int              `json:"duration" validate:"required,min=1"`
	TimeRange       models.TimeRange `json:"timeRange" validate:"required"`
	NumExaminers    int              `json:"num_of_examiners" validate:"required,min=1"`
	VenueID         string           `json:"venue_id" validate:"required"`
	StudentIDs      []string         `json:"student_ids" validate:"required,min=1"`
	ExaminerIDs     []string         `json:"examiner_ids" validate:"required,min=1"`
}

// BookingService owns the booking commit path. A committed booking is
// conflict-free: the availability check runs as the last read before
// the insert, and both execute under a per-date lock so concurrent
// submissions for one date cannot interleave.
type BookingService struct {
	repo      bookingRepository
	students  bookingStudentRepository
	examiners bookingExaminerRepository
	venues    bookingVenueRepository
	checker   slotChecker
	notifier  lectureNotifier
	locks     *DateLocker
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs the booking service. notifier and
// metrics may be nil to disable lecture-reschedule notices and
// instrumentation.
func NewBookingService(
	repo bookingRepository,
	students bookingStudentRepository,
	examiners bookingExaminerRepository,
	venues bookingVenueRepository,
	checker slotChecker,
	notifier lectureNotifier,
	locks *DateLocker,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewDateLocker()
	}
	return &BookingService{
		repo:      repo,
		students:  students,
		examiners: examiners,
		venues:    venues,
		checker:   checker,
		notifier:  notifier,
		locks:     locks,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// List returns bookings and pagination metadata.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
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
	return bookings, pagination, nil
}

// Get returns one booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "booking not found")
	}
	return booking, nil
}

// ListByExaminer returns every booking referencing the examiner.
func (s *BookingService) ListByExaminer(ctx context.Context, examinerID string) ([]models.Booking, error) {
	bookings, err := s.repo.ListByExaminer(ctx, examinerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings by examiner")
	}
	return bookings, nil
}

// ListByStudent returns every booking referencing the student.
func (s *BookingService) ListByStudent(ctx context.Context, studentID string) ([]models.Booking, error) {
	bookings, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings by student")
	}
	return bookings, nil
}

// Create validates the payload and its participants, checks the slot
// under the date lock and persists. On success one lecture-reschedule
// notice goes out per assigned examiner; notification failures never
// fail the booking.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "all fields are required")
	}
	if req.NumExaminers != len(req.ExaminerIDs) {
		return nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "num_of_examiners must match the examiner list")
	}

	examinerCodes, err := s.resolveParticipants(ctx, req.StudentIDs, req.ExaminerIDs, req.VenueID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.Date)
	defer unlock()

	// Venues and participants are global resources, so the conflict
	// check must see every department's bookings on the date.
	filter := models.AvailabilityFilter{
		Date:        req.Date,
		VenueID:     req.VenueID,
		StudentIDs:  req.StudentIDs,
		ExaminerIDs: req.ExaminerIDs,
	}
	available, conflicts, err := s.checker.IsSlotAvailable(ctx, filter, req.TimeRange, "")
	if err != nil {
		return nil, err
	}
	if !available {
		s.metrics.RecordBookingConflict()
		s.logger.Info("booking rejected, slot unavailable",
			zap.String("date", req.Date), zap.Int("conflicts", len(conflicts)))
		return nil, appErrors.ErrSlotUnavailable
	}

	booking := &models.Booking{
		Title:           req.Title,
		Department:      req.Department,
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		TimeRange:       req.TimeRange,
		NumExaminers:    req.NumExaminers,
		VenueID:         req.VenueID,
		StudentIDs:      req.StudentIDs,
		ExaminerIDs:     req.ExaminerIDs,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.metrics.RecordBookingCreated()
	s.checker.InvalidateDate(ctx, booking.Date)
	if s.notifier != nil {
		s.notifier.Dispatch(examinerCodes, booking.Date)
	}
	return booking, nil
}

// Update applies changes to a booking. Edits that leave date, time
// range and venue untouched skip re-validation; moving any of the three
// re-runs the availability check with the booking itself excluded.
func (s *BookingService) Update(ctx context.Context, id string, req UpdateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "all fields are required")
	}
	if req.NumExaminers != len(req.ExaminerIDs) {
		return nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "num_of_examiners must match the examiner list")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "booking not found")
	}

	if _, err := s.resolveParticipants(ctx, req.StudentIDs, req.ExaminerIDs, req.VenueID); err != nil {
		return nil, err
	}

	slotMoved := existing.Date != req.Date ||
		existing.TimeRange != req.TimeRange ||
		existing.VenueID != req.VenueID

	if slotMoved {
		unlock := s.locks.Lock(req.Date)
		defer unlock()

		filter := models.AvailabilityFilter{
			Date:        req.Date,
			VenueID:     req.VenueID,
			StudentIDs:  req.StudentIDs,
			ExaminerIDs: req.ExaminerIDs,
		}
		available, _, err := s.checker.IsSlotAvailable(ctx, filter, req.TimeRange, existing.ID)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, appErrors.ErrSlotUnavailable
		}
	}

	updated := &models.Booking{
		ID:              existing.ID,
		Title:           req.Title,
		Department:      req.Department,
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		TimeRange:       req.TimeRange,
		NumExaminers:    req.NumExaminers,
		VenueID:         req.VenueID,
		StudentIDs:      req.StudentIDs,
		ExaminerIDs:     req.ExaminerIDs,
		CreatedAt:       existing.CreatedAt,
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}

	s.checker.InvalidateDate(ctx, existing.Date)
	if existing.Date != updated.Date {
		s.checker.InvalidateDate(ctx, updated.Date)
	}
	return updated, nil
}

// Delete removes a booking. Reschedule requests referencing it are left
// in place.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "booking not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete booking")
	}
	s.checker.InvalidateDate(ctx, existing.Date)
	return nil
}

// resolveParticipants verifies every referenced student, examiner and
// the venue exist, and returns the examiner codes for notification
// dispatch.
func (s *BookingService) resolveParticipants(ctx context.Context, studentIDs, examinerIDs []string, venueID string) ([]string, error) {
	students, err := s.students.FindByIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve students")
	}
	if len(students) != len(studentIDs) {
		return nil, appErrors.Wrap(nil, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "one or more students not found")
	}

	examiners, err := s.examiners.FindByIDs(ctx, examinerIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve examiners")
	}
	if len(examiners) != len(examinerIDs) {
		return nil, appErrors.Wrap(nil, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "one or more examiners not found")
	}

	if _, err := s.venues.FindByID(ctx, venueID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "venue not found")
	}

	codes := make([]string, len(examiners))
	for i, ex := range examiners {
		codes[i] = ex.Code
	}
	return codes, nil
}
