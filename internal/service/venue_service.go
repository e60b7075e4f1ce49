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

type venueRepository interface {
	List(ctx context.Context) ([]models.Venue, error)
	FindByID(ctx context.Context, id string) (*models.Venue, error)
	Create(ctx context.Context, venue *models.Venue) error
	Update(ctx context.Context, venue *models.Venue) error
	Delete(ctx context.Context, id string) error
}

// CreateVenueRequest holds payload for registering venues.
type CreateVenueRequest struct {
	Code     string `json:"venue_id" validate:"required"`
	Location string `json:"location" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

// UpdateVenueRequest holds payload for updating venues.
type UpdateVenueRequest struct {
	Location string `json:"location" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

// VenueService handles venue use-cases.
type VenueService struct {
	repo      venueRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVenueService constructs the venue service.
func NewVenueService(repo venueRepository, validate *validator.Validate, logger *zap.Logger) *VenueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VenueService{repo: repo, validator: validate, logger: logger}
}

// List returns every venue in storage order.
func (s *VenueService) List(ctx context.Context) ([]models.Venue, error) {
	venues, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list venues")
	}
	return venues, nil
}

// Get returns a venue by id.
func (s *VenueService) Get(ctx context.Context, id string) (*models.Venue, error) {
	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venue")
	}
	return venue, nil
}

// Create registers a new venue.
func (s *VenueService) Create(ctx context.Context, req CreateVenueRequest) (*models.Venue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid venue payload")
	}
	venue := &models.Venue{
		Code:     strings.TrimSpace(req.Code),
		Location: strings.TrimSpace(req.Location),
		Capacity: req.Capacity,
	}
	if err := s.repo.Create(ctx, venue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create venue")
	}
	return venue, nil
}

// Update modifies an existing venue. The code is immutable.
func (s *VenueService) Update(ctx context.Context, id string, req UpdateVenueRequest) (*models.Venue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid venue payload")
	}
	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venue")
	}

	venue.Location = strings.TrimSpace(req.Location)
	venue.Capacity = req.Capacity

	if err := s.repo.Update(ctx, venue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update venue")
	}
	return venue, nil
}

// Delete removes a venue.
func (s *VenueService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venue")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete venue")
	}
	return nil
}
