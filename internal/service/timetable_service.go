package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unidept/presentation-scheduler/internal/models"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
)

type timetableRepository interface {
	List(ctx context.Context, filter models.LectureFilter) ([]models.Lecture, int, error)
	FindByID(ctx context.Context, id string) (*models.Lecture, error)
	ListByExaminer(ctx context.Context, examinerID string) ([]models.Lecture, error)
	ListByVenue(ctx context.Context, venueID string) ([]models.Lecture, error)
	Create(ctx context.Context, lecture *models.Lecture) error
	Update(ctx context.Context, lecture *models.Lecture) error
	Delete(ctx context.Context, id string) error
}

// SaveLectureRequest holds payload for creating or updating lectures.
type SaveLectureRequest struct {
	GroupID    string `json:"group_id" validate:"required"`
	ModuleCode string `json:"module_code" validate:"required"`
	ExaminerID string `json:"lecturer_id" validate:"required"`
	VenueID    string `json:"venue_id" validate:"required"`
	DayOfWeek  string `json:"day" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime  string `json:"start_time" validate:"required,len=5"`
	EndTime    string `json:"end_time" validate:"required,len=5"`
}

// TimetableService manages recurring lecture entries. The per-weekday
// lecture load of a department's examiners drives suggestion date
// ranking, so entries are validated for sane time ranges on write.
type TimetableService struct {
	repo      timetableRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs the timetable service.
func NewTimetableService(repo timetableRepository, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, validator: validate, logger: logger}
}

// List returns lectures and pagination metadata.
func (s *TimetableService) List(ctx context.Context, filter models.LectureFilter) ([]models.Lecture, *models.Pagination, error) {
	lectures, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lectures")
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
	return lectures, pagination, nil
}

// Get returns a lecture by id.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Lecture, error) {
	lecture, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture")
	}
	return lecture, nil
}

// ListByExaminer returns the examiner's weekly lectures.
func (s *TimetableService) ListByExaminer(ctx context.Context, examinerID string) ([]models.Lecture, error) {
	lectures, err := s.repo.ListByExaminer(ctx, examinerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lectures by examiner")
	}
	return lectures, nil
}

// ListByVenue returns lectures held in a venue.
func (s *TimetableService) ListByVenue(ctx context.Context, venueID string) ([]models.Lecture, error) {
	lectures, err := s.repo.ListByVenue(ctx, venueID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lectures by venue")
	}
	return lectures, nil
}

// Create registers a recurring lecture entry.
func (s *TimetableService) Create(ctx context.Context, req SaveLectureRequest) (*models.Lecture, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	lecture := s.fromRequest(req)
	if err := s.repo.Create(ctx, lecture); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecture")
	}
	return lecture, nil
}

// Update replaces an existing lecture entry.
func (s *TimetableService) Update(ctx context.Context, id string, req SaveLectureRequest) (*models.Lecture, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture")
	}
	lecture := s.fromRequest(req)
	lecture.ID = id
	if err := s.repo.Update(ctx, lecture); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lecture")
	}
	return lecture, nil
}

// Delete removes a lecture entry.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lecture")
	}
	return nil
}

func (s *TimetableService) validateRequest(req SaveLectureRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecture payload")
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	end, err := parseClock(req.EndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if start >= end {
		return appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start time must be before end time")
	}
	return nil
}

func (s *TimetableService) fromRequest(req SaveLectureRequest) *models.Lecture {
	return &models.Lecture{
		GroupID:    strings.TrimSpace(req.GroupID),
		ModuleCode: strings.TrimSpace(req.ModuleCode),
		ExaminerID: req.ExaminerID,
		VenueID:    req.VenueID,
		DayOfWeek:  strings.ToUpper(strings.TrimSpace(req.DayOfWeek)),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
}
