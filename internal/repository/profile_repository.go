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

// ProfileRepository reads role-specific profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// AnySupervisorID returns the oldest supervisor profile id, or sql.ErrNoRows
// when no supervisor exists.
func (r *ProfileRepository) AnySupervisorID(ctx context.Context) (string, error) {
	const query = `SELECT id FROM supervisors ORDER BY created_at ASC, id ASC LIMIT 1`
	var id string
	if err := r.db.GetContext(ctx, &id, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("find supervisor: %w", err)
	}
	return id, nil
}

// OperatorByUserID returns the guard profile for a user.
func (r *ProfileRepository) OperatorByUserID(ctx context.Context, userID string) (*models.Operator, error) {
	const query = `SELECT id, user_id, supervisor_id, location_id, beat_id, salary, created_at FROM operators WHERE user_id = $1`
	var op models.Operator
	if err := r.db.GetContext(ctx, &op, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find operator: %w", err)
	}
	return &op, nil
}

// insertProfile writes the single profile set on p for userID.
func insertProfile(ctx context.Context, exec sqlx.ExtContext, userID string, p models.Provisioning) error {
	now := time.Now().UTC()
	switch {
	case p.Supervisor != nil:
		fillProfile(&p.Supervisor.ID, &p.Supervisor.UserID, &p.Supervisor.CreatedAt, userID, now)
		const query = `INSERT INTO supervisors (id, user_id, supervisor_type, location_id, salary, created_at)
		VALUES (:id, :user_id, :supervisor_type, :location_id, :salary, :created_at)`
		if _, err := sqlx.NamedExecContext(ctx, exec, query, p.Supervisor); err != nil {
			return fmt.Errorf("create supervisor profile: %w", err)
		}
	case p.Secretary != nil:
		fillProfile(&p.Secretary.ID, &p.Secretary.UserID, &p.Secretary.CreatedAt, userID, now)
		const query = `INSERT INTO secretaries (id, user_id, location_id, department, salary, created_at)
		VALUES (:id, :user_id, :location_id, :department, :salary, :created_at)`
		if _, err := sqlx.NamedExecContext(ctx, exec, query, p.Secretary); err != nil {
			return fmt.Errorf("create secretary profile: %w", err)
		}
	case p.Operator != nil:
		fillProfile(&p.Operator.ID, &p.Operator.UserID, &p.Operator.CreatedAt, userID, now)
		const query = `INSERT INTO operators (id, user_id, supervisor_id, location_id, beat_id, salary, created_at)
		VALUES (:id, :user_id, :supervisor_id, :location_id, :beat_id, :salary, :created_at)`
		if _, err := sqlx.NamedExecContext(ctx, exec, query, p.Operator); err != nil {
			return fmt.Errorf("create operator profile: %w", err)
		}
	default:
		return errors.New("no profile to provision")
	}
	return nil
}

func fillProfile(id, owner *string, createdAt *time.Time, userID string, now time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	*owner = userID
	if createdAt.IsZero() {
		*createdAt = now
	}
}
