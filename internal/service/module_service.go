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

	"github.com/unidept/presentation-scheduler/internal/models"
	appErrors "github.com/unidept/presentation-scheduler/pkg/errors"
)

type moduleRepository interface {
	List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error)
	FindByID(ctx context.Context, id string) (*models.Module, error)
	MaxCodeForDepartment(ctx context.Context, prefix string) (string, error)
	Create(ctx context.Context, module *models.Module) error
	Update(ctx context.Context, module *models.Module) error
	Delete(ctx context.Context, id string) error
}

type moduleExaminerRepository interface {
	FindByCodes(ctx context.Context, codes []string) ([]models.Examiner, error)
}

// CreateModuleRequest represents payload for registering modules.
type CreateModuleRequest struct {
	Name         string `json:"module_name" validate:"required"`
	Department   string `json:"department" validate:"required"`
	LecturerCode string `json:"lecturer_in_charge" validate:"required"`
}

// UpdateModuleRequest represents payload for updating modules. An
// empty lecturer code keeps the current lecturer.
type UpdateModuleRequest struct {
	Name         string `json:"module_name" validate:"required"`
	Department   string `json:"department" validate:"required"`
	LecturerCode string `json:"lecturer_in_charge" validate:"omitempty"`
}

// ModuleService manages course modules. Codes follow "M<DEPT><seq>"
// with a zero-padded per-department sequence; the lecturer in charge is
// supplied by examiner code and stored by id.
type ModuleService struct {
	repo      moduleRepository
	examiners moduleExaminerRepository
	validator *validator.Validate
	now       func() time.Time
	logger    *zap.Logger
}

// NewModuleService constructs a ModuleService.
func NewModuleService(repo moduleRepository, examiners moduleExaminerRepository, validate *validator.Validate, logger *zap.Logger) *ModuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleService{repo: repo, examiners: examiners, validator: validate, now: time.Now, logger: logger}
}

// List returns modules plus pagination data.
func (s *ModuleService) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, *models.Pagination, error) {
	modules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
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
	return modules, pagination, nil
}

// Get returns a module by id.
func (s *ModuleService) Get(ctx context.Context, id string) (*models.Module, error) {
	module, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	return module, nil
}

// Create registers a module and assigns the next code for its
// department.
func (s *ModuleService) Create(ctx context.Context, req CreateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "all fields are required")
	}

	lecturer, err := s.resolveLecturer(ctx, req.LecturerCode)
	if err != nil {
		return nil, err
	}

	department := strings.TrimSpace(req.Department)
	code, err := s.nextCode(ctx, department)
	if err != nil {
		return nil, err
	}

	module := &models.Module{
		Code:       code,
		Name:       strings.TrimSpace(req.Name),
		Department: department,
		LecturerID: lecturer.ID,
	}
	if err := s.repo.Create(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module")
	}
	return module, nil
}

// Update modifies an existing module. The code is immutable; an empty
// lecturer code leaves the lecturer unchanged.
func (s *ModuleService) Update(ctx context.Context, id string, req UpdateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid module payload")
	}

	module, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}

	if req.LecturerCode != "" {
		lecturer, err := s.resolveLecturer(ctx, req.LecturerCode)
		if err != nil {
			return nil, err
		}
		module.LecturerID = lecturer.ID
	}

	module.Name = strings.TrimSpace(req.Name)
	module.Department = strings.TrimSpace(req.Department)

	if err := s.repo.Update(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module")
	}
	return module, nil
}

// Delete removes a module.
func (s *ModuleService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete module")
	}
	return nil
}

func (s *ModuleService) resolveLecturer(ctx context.Context, code string) (*models.Examiner, error) {
	found, err := s.examiners.FindByCodes(ctx, []string{strings.TrimSpace(code)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve lecturer")
	}
	if len(found) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
	}
	return &found[0], nil
}

func (s *ModuleService) nextCode(ctx context.Context, department string) (string, error) {
	prefix := "M" + strings.ToUpper(department)
	last, err := s.repo.MaxCodeForDepartment(ctx, prefix)
	if err != nil && err != sql.ErrNoRows {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate module code")
	}
	seq := 1
	if strings.HasPrefix(last, prefix) {
		if n, convErr := strconv.Atoi(last[len(prefix):]); convErr == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}
