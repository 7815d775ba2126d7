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

// ConstraintStaffID guards unique admin staff IDs.
const ConstraintStaffID = "admins_staff_id_key"

const adminColumns = `a.id, a.user_id, a.staff_id, a.location_id, a.position, a.created_at,
       u.email, u.full_name, u.phone, u.role, u.status`

// AdminRepository persists directly registered admin accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs the repository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create writes the account and admin profile in one transaction.
func (r *AdminRepository) Create(ctx context.Context, user *models.User, admin *models.Admin) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin admin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertUser(ctx, tx, user); err != nil {
		return err
	}
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	admin.UserID = user.ID
	admin.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO admins (id, user_id, staff_id, location_id, position, created_at)
	VALUES (:id, :user_id, :staff_id, :location_id, :position, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("create admin profile: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit admin tx: %w", err)
	}
	return nil
}

// GetByID returns an admin joined with the account.
func (r *AdminRepository) GetByID(ctx context.Context, id string) (*models.AdminView, error) {
	query := `SELECT ` + adminColumns + ` FROM admins a JOIN users u ON u.id = a.user_id WHERE a.id = $1`
	var view models.AdminView
	if err := r.db.GetContext(ctx, &view, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &view, nil
}

// List returns all admins ordered by staff ID.
func (r *AdminRepository) List(ctx context.Context) ([]models.AdminView, error) {
	query := `SELECT ` + adminColumns + ` FROM admins a JOIN users u ON u.id = a.user_id ORDER BY a.staff_id ASC`
	var views []models.AdminView
	if err := r.db.SelectContext(ctx, &views, query); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return views, nil
}

// StaffIDs returns staff IDs within locationID matching the LIKE pattern.
func (r *AdminRepository) StaffIDs(ctx context.Context, locationID, like string) ([]string, error) {
	const query = `SELECT staff_id FROM admins WHERE location_id = $1 AND staff_id LIKE $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, locationID, like); err != nil {
		return nil, fmt.Errorf("list staff ids: %w", err)
	}
	return ids, nil
}

// StaffIDExists checks code against every admin.
func (r *AdminRepository) StaffIDExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM admins WHERE staff_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("check staff id: %w", err)
	}
	return exists, nil
}
