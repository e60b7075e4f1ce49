package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/unidept/presentation-scheduler/internal/models"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
)

type examinerRepository interface {
	List(ctx context.Context, filter models.ExaminerFilter) ([]models.Examiner, int, error)
	FindByID(ctx context.Context, id string) (*models.Examiner, error)
	MaxCodeForYear(ctx context.Context, prefix string) (string, error)
	Create(ctx context.Context, examiner *models.Examiner) error
	Update(ctx context.Context, examiner *models.Examiner) error
	Delete(ctx context.Context, id string) error
}

type examinerUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	DeleteByEmail(ctx context.Context, email string) error
}

// CreateExaminerRequest represents payload for registering examiners.
type CreateExaminerRequest struct {
	FullName   string  `json:"name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      *string `json:"phone" validate:"omitempty,max=50"`
	Department string  `json:"department" validate:"required"`
	Password   string  `json:"password" validate:"required,min=8"`
}

// UpdateExaminerRequest represents payload for updating examiners.
type UpdateExaminerRequest struct {
	FullName   string  `json:"name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      *string `json:"phone" validate:"omitempty,max=50"`
	Department string  `json:"department" validate:"required"`
}

// ExaminerService orchestrates examiner records and their paired login
// accounts. Codes follow "EX<year><seq>" with a zero-padded per-year
// sequence.
type ExaminerService struct {
	repo      examinerRepository
	users     examinerUserRepository
	validator *validator.Validate
	now       func() time.Time
	logger    *zap.Logger
}

// NewExaminerService constructs an ExaminerService.
func NewExaminerService(repo examinerRepository, users examinerUserRepository, validate *validator.Validate, logger *zap.Logger) *ExaminerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExaminerService{repo: repo, users: users, validator: validate, now: time.Now, logger: logger}
}

// List returns examiners plus pagination data.
func (s *ExaminerService) List(ctx context.Context, filter models.ExaminerFilter) ([]models.Examiner, *models.Pagination, error) {
	examiners, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list examiners")
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
	return examiners, pagination, nil
}

// Get returns an examiner by id.
func (s *ExaminerService) Get(ctx context.Context, id string) (*models.Examiner, error) {
	examiner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "examiner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load examiner")
	}
	return examiner, nil
}

// Create registers an examiner, assigns the next code for the current
// year and provisions the paired EXAMINER login account.
func (s *ExaminerService) Create(ctx context.Context, req CreateExaminerRequest) (*models.Examiner, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid examiner payload")
	}

	code, err := s.nextCode(ctx)
	if err != nil {
		return nil, err
	}

	examiner := &models.Examiner{
		Code:       code,
		FullName:   strings.TrimSpace(req.FullName),
		Email:      strings.TrimSpace(req.Email),
		Phone:      normalizeOptional(req.Phone),
		Department: strings.TrimSpace(req.Department),
	}
	if err := s.repo.Create(ctx, examiner); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create examiner")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Email:        examiner.Email,
		PasswordHash: string(hash),
		FullName:     examiner.FullName,
		Role:         models.RoleExaminer,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create examiner account")
	}
	return examiner, nil
}

// Update modifies an existing examiner. The code is immutable.
func (s *ExaminerService) Update(ctx context.Context, id string, req UpdateExaminerRequest) (*models.Examiner, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid examiner payload")
	}

	examiner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "examiner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load examiner")
	}

	examiner.FullName = strings.TrimSpace(req.FullName)
	examiner.Email = strings.TrimSpace(req.Email)
	examiner.Phone = normalizeOptional(req.Phone)
	examiner.Department = strings.TrimSpace(req.Department)

	if err := s.repo.Update(ctx, examiner); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update examiner")
	}
	return examiner, nil
}

// Delete removes the examiner and the paired login account.
func (s *ExaminerService) Delete(ctx context.Context, id string) error {
	examiner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "examiner not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load examiner")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete examiner")
	}
	if err := s.users.DeleteByEmail(ctx, examiner.Email); err != nil {
		s.logger.Warn("failed to delete examiner account", zap.String("email", examiner.Email), zap.Error(err))
	}
	return nil
}

func (s *ExaminerService) nextCode(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("EX%d", s.now().Year())
	last, err := s.repo.MaxCodeForYear(ctx, prefix)
	if err != nil && err != sql.ErrNoRows {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate examiner code")
	}
	seq := 1
	if strings.HasPrefix(last, prefix) {
		if n, convErr := strconv.Atoi(last[len(prefix):]); convErr == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
