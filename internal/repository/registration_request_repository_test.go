package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/guardforce-api/internal/models"
)

var registrationRowColumns = []string{"id", "full_name", "email", "phone", "role", "location_id", "department", "start_date",
	"profile_photo", "gender", "date_of_birth", "address", "national_id", "emergency_contact_name", "emergency_contact_phone",
	"status", "requested_by", "requested_by_name", "reviewed_by", "reviewed_at", "rejection_reason", "generated_user_id",
	"generated_employee_id", "generated_password", "created_at", "updated_at"}

func registrationRow(rows *sqlmock.Rows, id, email string, role models.RequestedRole, status models.RegistrationStatus) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "New Guard", email, "0800", string(role), nil, "", nil, "", "", nil, "", "", "", "",
		string(status), "mgr-1", "Mary Manager", nil, nil, nil, nil, nil, nil, now, now)
}

func TestRegistrationCreateForcesPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration_requests")).WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.RegistrationRequest{FullName: "New Guard", Email: "new.guard@x.com", Role: models.RequestedGuard, RequestedBy: "mgr-1", Status: models.RegistrationApproved}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.RegistrationPending, req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE rr.id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRequestRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := registrationRow(sqlmock.NewRows(registrationRowColumns), "r1", "a@x.com", models.RequestedGuard, models.RegistrationPending)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE rr.status = $1 AND rr.role = $2 AND rr.created_at >= $3 ORDER BY rr.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.RegistrationPending, models.RequestedGuard, from).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM registration_requests rr WHERE rr.status = $1 AND rr.role = $2 AND rr.created_at >= $3")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.RegistrationFilter{
		Status:   models.RegistrationPending,
		Role:     models.RequestedGuard,
		DateFrom: &from,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mary Manager", *list[0].RequestedByName)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationCountsArePendingOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM registration_requests WHERE status = $1 GROUP BY role")).
		WithArgs(models.RegistrationPending).
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).AddRow("GUARD", 3).AddRow("HR", 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE rr.status = $1")).
		WithArgs(models.RegistrationPending).
		WillReturnRows(sqlmock.NewRows([]string{"manager_id", "full_name", "email", "count"}).AddRow("mgr-1", "Mary", "mary@x.com", 4))

	roles, err := repo.RoleCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.RoleCount{{Role: models.RequestedGuard, Count: 3}, {Role: models.RequestedHR, Count: 1}}, roles)

	managers, err := repo.ManagerCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, 4, managers[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRequestRepository(db)

	window := models.NewStatsWindow(time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE status = 'PENDING') AS pending")).
		WithArgs(window.DayStart, window.WeekStart).
		WillReturnRows(sqlmock.NewRows([]string{"pending", "approved_today", "rejected_today", "approved_this_week"}).AddRow(5, 2, 1, 9))

	stats, err := repo.Stats(context.Background(), window)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStats{Pending: 5, ApprovedToday: 2, RejectedToday: 1, ApprovedThisWeek: 9}, *stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func approveParams() ApproveParams {
	employeeID := "GRD00001"
	return ApproveParams{
		RequestID:  "req-1",
		ReviewerID: "dir-1",
		ReviewedAt: time.Now().UTC(),
		Password:   "Gf@GRD00001abcdefgh",
		Provisioning: models.Provisioning{
			User:     models.User{Email: "new.guard@x.com", Role: models.RoleOperator, EmployeeID: &employeeID},
			Operator: &models.Operator{SupervisorID: "sup-1"},
		},
	}
}

func TestRegistrationApproveCommitsAllWrites(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO operators").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE registration_requests").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	params := approveParams()
	require.NoError(t, repo.Approve(context.Background(), params))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationApproveRollsBackWhenAlreadyReviewed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO operators").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE registration_requests").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), approveParams())
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationApproveRollsBackOnProfileFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO operators").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), approveParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create operator profile")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRejectConditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRequestRepository(db)

	reason := "incomplete documents"
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $6")).
		WithArgs("req-1", models.RegistrationRejected, "dir-1", sqlmock.AnyArg(), &reason, models.RegistrationPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $6")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Reject(context.Background(), "req-1", "dir-1", &reason, time.Now()))
	err := repo.Reject(context.Background(), "req-1", "dir-1", nil, time.Now())
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
