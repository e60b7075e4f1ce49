package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unidept/presentation-scheduler/internal/models"
)

// VenueRepository provides persistence for venues.
type VenueRepository struct {
	db *sqlx.DB
}

// NewVenueRepository creates a new venue repository.
func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

const venueColumns = "id, code, location, capacity, created_at, updated_at"

// List returns all venues in stable storage order; the suggestion
// engine relies on this ordering.
func (r *VenueRepository) List(ctx context.Context) ([]models.Venue, error) {
	query := fmt.Sprintf("SELECT %s FROM venues ORDER BY created_at ASC, code ASC", venueColumns)
	var venues []models.Venue
	if err := r.db.SelectContext(ctx, &venues, query); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}

// FindByID loads a venue by opaque id.
func (r *VenueRepository) FindByID(ctx context.Context, id string) (*models.Venue, error) {
	query := fmt.Sprintf("SELECT %s FROM venues WHERE id = $1", venueColumns)
	var venue models.Venue
	if err := r.db.GetContext(ctx, &venue, query, id); err != nil {
		return nil, err
	}
	return &venue, nil
}

// FindByCode translates a human-readable code to the venue record.
func (r *VenueRepository) FindByCode(ctx context.Context, code string) (*models.Venue, error) {
	query := fmt.Sprintf("SELECT %s FROM venues WHERE code = $1", venueColumns)
	var venue models.Venue
	if err := r.db.GetContext(ctx, &venue, query, code); err != nil {
		return nil, err
	}
	return &venue, nil
}

// Create stores a new venue record.
func (r *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	if venue.ID == "" {
		venue.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	venue.CreatedAt = now
	venue.UpdatedAt = now

	const query = `INSERT INTO venues (id, code, location, capacity, created_at, updated_at)
VALUES (:id, :code, :location, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, venue); err != nil {
		return fmt.Errorf("create venue: %w", err)
	}
	return nil
}

// Update rewrites a venue record.
func (r *VenueRepository) Update(ctx context.Context, venue *models.Venue) error {
	venue.UpdatedAt = time.Now().UTC()
	const query = `UPDATE venues SET location = :location, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, venue); err != nil {
		return fmt.Errorf("update venue: %w", err)
	}
	return nil
}

// Delete removes a venue.
func (r *VenueRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM venues WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	return nil
}
