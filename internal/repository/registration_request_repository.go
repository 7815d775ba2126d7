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

// Unique constraints surfaced to the service layer.
const (
	ConstraintPendingEmail = "registration_requests_pending_email_key"
	ConstraintUserEmail    = "users_email_key"
	ConstraintEmployeeID   = "users_employee_id_key"
)

const registrationColumns = `rr.id, rr.full_name, rr.email, rr.phone, rr.role, rr.location_id, rr.department, rr.start_date,
       rr.profile_photo, rr.gender, rr.date_of_birth, rr.address, rr.national_id, rr.emergency_contact_name,
       rr.emergency_contact_phone, rr.status, rr.requested_by, u.full_name AS requested_by_name, rr.reviewed_by,
       rr.reviewed_at, rr.rejection_reason, rr.generated_user_id, rr.generated_employee_id, rr.generated_password,
       rr.created_at, rr.updated_at`

const registrationFrom = ` FROM registration_requests rr LEFT JOIN users u ON u.id = rr.requested_by`

// RegistrationRequestRepository persists personnel onboarding requests.
type RegistrationRequestRepository struct {
	db *sqlx.DB
}

// NewRegistrationRequestRepository constructs the repository.
func NewRegistrationRequestRepository(db *sqlx.DB) *RegistrationRequestRepository {
	return &RegistrationRequestRepository{db: db}
}

// Create inserts a new PENDING request. A concurrent pending request for the
// same email fails on ConstraintPendingEmail.
func (r *RegistrationRequestRepository) Create(ctx context.Context, req *models.RegistrationRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	req.Status = models.RegistrationPending

	const query = `INSERT INTO registration_requests
	(id, full_name, email, phone, role, location_id, department, start_date, profile_photo, gender, date_of_birth,
	 address, national_id, emergency_contact_name, emergency_contact_phone, status, requested_by, created_at, updated_at)
	VALUES (:id, :full_name, :email, :phone, :role, :location_id, :department, :start_date, :profile_photo, :gender, :date_of_birth,
	 :address, :national_id, :emergency_contact_name, :emergency_contact_phone, :status, :requested_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create registration request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *RegistrationRequestRepository) GetByID(ctx context.Context, id string) (*models.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + registrationFrom + ` WHERE rr.id = $1`
	var req models.RegistrationRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get registration request: %w", err)
	}
	return &req, nil
}

// PendingEmailExists reports whether a PENDING request already uses email.
func (r *RegistrationRequestRepository) PendingEmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM registration_requests WHERE LOWER(email) = LOWER($1) AND status = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, models.RegistrationPending); err != nil {
		return false, fmt.Errorf("check pending email: %w", err)
	}
	return exists, nil
}

// List returns requests matching filter, newest first, with the total count.
func (r *RegistrationRequestRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationRequest, int, error) {
	conditions := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("rr.status = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("rr.role = $%d", len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("rr.requested_by = $%d", len(args)))
	}
	if filter.LocationID != "" {
		args = append(args, filter.LocationID)
		conditions = append(conditions, fmt.Sprintf("rr.location_id = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("rr.created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("rr.created_at <= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s%s%s ORDER BY rr.created_at DESC LIMIT %d OFFSET %d",
		registrationColumns, registrationFrom, where, pageSize, (page-1)*pageSize)

	var requests []models.RegistrationRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list registration requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM registration_requests rr"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count registration requests: %w", err)
	}
	return requests, total, nil
}

// RoleCounts groups every PENDING request by requested role.
func (r *RegistrationRequestRepository) RoleCounts(ctx context.Context) ([]models.RoleCount, error) {
	const query = `SELECT role, COUNT(*) AS count FROM registration_requests WHERE status = $1 GROUP BY role ORDER BY role`
	var counts []models.RoleCount
	if err := r.db.SelectContext(ctx, &counts, query, models.RegistrationPending); err != nil {
		return nil, fmt.Errorf("count pending by role: %w", err)
	}
	return counts, nil
}

// ManagerCounts groups every PENDING request by the submitting manager.
func (r *RegistrationRequestRepository) ManagerCounts(ctx context.Context) ([]models.ManagerCount, error) {
	const query = `SELECT rr.requested_by AS manager_id, COALESCE(u.full_name, '') AS full_name, COALESCE(u.email, '') AS email, COUNT(*) AS count
	FROM registration_requests rr LEFT JOIN users u ON u.id = rr.requested_by
	WHERE rr.status = $1
	GROUP BY rr.requested_by, u.full_name, u.email
	ORDER BY count DESC, full_name`
	var counts []models.ManagerCount
	if err := r.db.SelectContext(ctx, &counts, query, models.RegistrationPending); err != nil {
		return nil, fmt.Errorf("count pending by manager: %w", err)
	}
	return counts, nil
}

// Stats computes review counters for the given window.
func (r *RegistrationRequestRepository) Stats(ctx context.Context, window models.StatsWindow) (*models.RegistrationStats, error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
	COUNT(*) FILTER (WHERE status = 'APPROVED' AND reviewed_at >= $1) AS approved_today,
	COUNT(*) FILTER (WHERE status = 'REJECTED' AND reviewed_at >= $1) AS rejected_today,
	COUNT(*) FILTER (WHERE status = 'APPROVED' AND reviewed_at >= $2) AS approved_this_week
	FROM registration_requests`
	var stats models.RegistrationStats
	if err := r.db.GetContext(ctx, &stats, query, window.DayStart, window.WeekStart); err != nil {
		return nil, fmt.Errorf("registration stats: %w", err)
	}
	return &stats, nil
}

// ApproveParams carries everything persisted by an approval.
type ApproveParams struct {
	RequestID    string
	ReviewerID   string
	ReviewedAt   time.Time
	Password     string
	Provisioning models.Provisioning
}

// Approve creates the account, its profile and marks the request APPROVED in
// one transaction. sql.ErrNoRows means the request was no longer PENDING.
func (r *RegistrationRequestRepository) Approve(ctx context.Context, params ApproveParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	user := &params.Provisioning.User
	if err = insertUser(ctx, tx, user); err != nil {
		return err
	}
	if err = insertProfile(ctx, tx, user.ID, params.Provisioning); err != nil {
		return err
	}

	const query = `UPDATE registration_requests
	SET status = $2, reviewed_by = $3, reviewed_at = $4, generated_user_id = $5, generated_employee_id = $6,
	    generated_password = $7, updated_at = $4
	WHERE id = $1 AND status = $8`
	result, err := tx.ExecContext(ctx, query, params.RequestID, models.RegistrationApproved, params.ReviewerID,
		params.ReviewedAt, user.ID, user.EmployeeID, params.Password, models.RegistrationPending)
	if err != nil {
		return fmt.Errorf("mark request approved: %w", err)
	}
	if err = requireAffected(result); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit approve tx: %w", err)
	}
	return nil
}

// Reject marks a PENDING request REJECTED. sql.ErrNoRows means it was no longer PENDING.
func (r *RegistrationRequestRepository) Reject(ctx context.Context, id, reviewerID string, reason *string, reviewedAt time.Time) error {
	const query = `UPDATE registration_requests
	SET status = $2, reviewed_by = $3, reviewed_at = $4, rejection_reason = $5, updated_at = $4
	WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, id, models.RegistrationRejected, reviewerID, reviewedAt, reason, models.RegistrationPending)
	if err != nil {
		return fmt.Errorf("reject registration request: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
