package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/guardforce-api/internal/models"
)

// ConstraintLocationName guards case-insensitive unique location names.
const ConstraintLocationName = "locations_name_key"

// LocationRepository persists client sites.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository constructs the repository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Create inserts a location.
func (r *LocationRepository) Create(ctx context.Context, loc *models.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	loc.CreatedAt = now
	loc.UpdatedAt = now
	if loc.Status == "" {
		loc.Status = "ACTIVE"
	}
	const query = `INSERT INTO locations (id, name, address, city, status, created_at, updated_at)
	VALUES (:id, :name, :address, :city, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, loc); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// GetByID fetches a location.
func (r *LocationRepository) GetByID(ctx context.Context, id string) (*models.Location, error) {
	const query = `SELECT id, name, address, city, status, created_at, updated_at FROM locations WHERE id = $1`
	var loc models.Location
	if err := r.db.GetContext(ctx, &loc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &loc, nil
}

// NameExists reports whether a location with this name exists.
func (r *LocationRepository) NameExists(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM locations WHERE LOWER(name) = LOWER($1))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("check location name: %w", err)
	}
	return exists, nil
}

// List returns all locations ordered by name.
func (r *LocationRepository) List(ctx context.Context) ([]models.Location, error) {
	const query = `SELECT id, name, address, city, status, created_at, updated_at FROM locations ORDER BY name ASC`
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}
