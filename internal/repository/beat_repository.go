package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/guardforce-api/internal/models"
)

// Beat unique constraints.
const (
	ConstraintBeatCode         = "beats_code_key"
	ConstraintBeatLocationName = "beats_location_name_key"
)

const beatColumns = `b.id, b.location_id, l.name AS location_name, b.name, b.code, b.description, b.guards_required,
       b.status, b.created_by, b.created_at, b.updated_at`

// BeatRepository persists security posts.
type BeatRepository struct {
	db *sqlx.DB
}

// NewBeatRepository constructs the repository.
func NewBeatRepository(db *sqlx.DB) *BeatRepository {
	return &BeatRepository{db: db}
}

// Create inserts a beat.
func (r *BeatRepository) Create(ctx context.Context, beat *models.Beat) error {
	if beat.ID == "" {
		beat.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	beat.CreatedAt = now
	beat.UpdatedAt = now
	if beat.Status == "" {
		beat.Status = models.BeatActive
	}
	const query = `INSERT INTO beats (id, location_id, name, code, description, guards_required, status, created_by, created_at, updated_at)
	VALUES (:id, :location_id, :name, :code, :description, :guards_required, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, beat); err != nil {
		return fmt.Errorf("create beat: %w", err)
	}
	return nil
}

// GetByID fetches a beat with its location name.
func (r *BeatRepository) GetByID(ctx context.Context, id string) (*models.Beat, error) {
	query := `SELECT ` + beatColumns + ` FROM beats b JOIN locations l ON l.id = b.location_id WHERE b.id = $1`
	var beat models.Beat
	if err := r.db.GetContext(ctx, &beat, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get beat: %w", err)
	}
	return &beat, nil
}

// List returns beats matching filter with the total count.
func (r *BeatRepository) List(ctx context.Context, filter models.BeatFilter) ([]models.Beat, int, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.LocationID != "" {
		args = append(args, filter.LocationID)
		conditions = append(conditions, fmt.Sprintf("b.location_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM beats b JOIN locations l ON l.id = b.location_id%s ORDER BY b.code ASC LIMIT %d OFFSET %d",
		beatColumns, where, pageSize, (page-1)*pageSize)

	var beats []models.Beat
	if err := r.db.SelectContext(ctx, &beats, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list beats: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM beats b"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count beats: %w", err)
	}
	return beats, total, nil
}

// NameExists reports whether locationID already has a beat with this name.
func (r *BeatRepository) NameExists(ctx context.Context, locationID, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM beats WHERE location_id = $1 AND LOWER(name) = LOWER($2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, locationID, name); err != nil {
		return false, fmt.Errorf("check beat name: %w", err)
	}
	return exists, nil
}

// Codes returns beat codes within locationID matching the LIKE pattern.
func (r *BeatRepository) Codes(ctx context.Context, locationID, like string) ([]string, error) {
	const query = `SELECT code FROM beats WHERE location_id = $1 AND code LIKE $2`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, locationID, like); err != nil {
		return nil, fmt.Errorf("list beat codes: %w", err)
	}
	return codes, nil
}

// CodeExists checks code against every beat regardless of location.
func (r *BeatRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM beats WHERE code = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("check beat code: %w", err)
	}
	return exists, nil
}
