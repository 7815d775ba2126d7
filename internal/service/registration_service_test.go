package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/guardforce-api/internal/dto"
	"github.com/noah-isme/guardforce-api/internal/models"
	"github.com/noah-isme/guardforce-api/internal/repository"
	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
	"github.com/noah-isme/guardforce-api/pkg/jobs"
	"github.com/noah-isme/guardforce-api/pkg/storage"
)

// memRegistry is an in-memory stand-in for the registration, user and
// profile repositories.
type memRegistry struct {
	mu          sync.Mutex
	requests    map[string]*models.RegistrationRequest
	users       []models.User
	supervisors []string
	operators   []models.Operator
	secretaries []models.Secretary
	supervised  []models.Supervisor
	audits      []*models.AuditLog
	approveErr  error
	createErr   error
	statsCalls  int
	passwords   map[string]string
}

func newMemRegistry() *memRegistry {
	return &memRegistry{requests: map[string]*models.RegistrationRequest{}, passwords: map[string]string{}}
}

func (m *memRegistry) Create(_ context.Context, req *models.RegistrationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	req.ID = uuid.NewString()
	req.Status = models.RegistrationPending
	req.CreatedAt = time.Now()
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *memRegistry) GetByID(_ context.Context, id string) (*models.RegistrationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *req
	return &cp, nil
}

func (m *memRegistry) PendingEmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests {
		if strings.EqualFold(req.Email, email) && req.Status == models.RegistrationPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRegistry) List(_ context.Context, filter models.RegistrationFilter) ([]models.RegistrationRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RegistrationRequest
	for _, req := range m.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.Role != "" && req.Role != filter.Role {
			continue
		}
		out = append(out, *req)
	}
	return out, len(out), nil
}

func (m *memRegistry) RoleCounts(_ context.Context) ([]models.RoleCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.RequestedRole]int{}
	for _, req := range m.requests {
		if req.Status == models.RegistrationPending {
			counts[req.Role]++
		}
	}
	var out []models.RoleCount
	for _, role := range models.RequestedRoles {
		if counts[role] > 0 {
			out = append(out, models.RoleCount{Role: role, Count: counts[role]})
		}
	}
	return out, nil
}

func (m *memRegistry) ManagerCounts(_ context.Context) ([]models.ManagerCount, error) {
	return nil, nil
}

func (m *memRegistry) Stats(_ context.Context, _ models.StatsWindow) (*models.RegistrationStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsCalls++
	stats := &models.RegistrationStats{}
	for _, req := range m.requests {
		if req.Status == models.RegistrationPending {
			stats.Pending++
		}
	}
	return stats, nil
}

func (m *memRegistry) Approve(_ context.Context, params repository.ApproveParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.approveErr != nil {
		return m.approveErr
	}
	req, ok := m.requests[params.RequestID]
	if !ok || req.Status != models.RegistrationPending {
		return sql.ErrNoRows
	}
	user := params.Provisioning.User
	m.users = append(m.users, user)
	switch {
	case params.Provisioning.Operator != nil:
		op := *params.Provisioning.Operator
		op.UserID = user.ID
		m.operators = append(m.operators, op)
	case params.Provisioning.Secretary != nil:
		m.secretaries = append(m.secretaries, *params.Provisioning.Secretary)
	case params.Provisioning.Supervisor != nil:
		m.supervised = append(m.supervised, *params.Provisioning.Supervisor)
	}
	req.Status = models.RegistrationApproved
	req.ReviewedBy = &params.ReviewerID
	req.GeneratedUserID = &user.ID
	req.GeneratedEmployeeID = user.EmployeeID
	req.GeneratedPassword = &params.Password
	m.passwords[user.ID] = user.PasswordHash
	return nil
}

func (m *memRegistry) Reject(_ context.Context, id, reviewerID string, reason *string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != models.RegistrationPending {
		return sql.ErrNoRows
	}
	req.Status = models.RegistrationRejected
	req.ReviewedBy = &reviewerID
	req.RejectionReason = reason
	return nil
}

func (m *memRegistry) ActiveEmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) && u.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRegistry) AnySupervisorID(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.supervisors) == 0 {
		return "", sql.ErrNoRows
	}
	return m.supervisors[0], nil
}

func (m *memRegistry) EmployeeIDs(_ context.Context, _ string, like string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(like, "%")
	var out []string
	for _, u := range m.users {
		if u.EmployeeID != nil && strings.HasPrefix(*u.EmployeeID, prefix) {
			out = append(out, *u.EmployeeID)
		}
	}
	return out, nil
}

func (m *memRegistry) EmployeeIDExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.EmployeeID != nil && *u.EmployeeID == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRegistry) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, log)
	return nil
}

type recordingQueue struct {
	jobs []jobs.Job
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func newRegistrationService(t *testing.T, reg *memRegistry, sender CredentialSender, opts ...RegistrationServiceOption) *RegistrationService {
	t.Helper()
	opts = append([]RegistrationServiceOption{WithPasswordHashCost(bcrypt.MinCost)}, opts...)
	return NewRegistrationService(reg, reg, reg, nil, NewEmployeeIDGenerator(reg, nil), sender, reg, nil, zap.NewNop(), opts...)
}

func guardRequest(email string) dto.CreateRegistrationRequest {
	return dto.CreateRegistrationRequest{
		FullName: "New Guard",
		Email:    email,
		Phone:    "+2348000000",
		Role:     models.RequestedGuard,
	}
}

func submit(t *testing.T, svc *RegistrationService, req dto.CreateRegistrationRequest) *models.RegistrationRequest {
	t.Helper()
	created, err := svc.Create(context.Background(), req, nil, uuid.NewString(), models.RequestMeta{})
	require.NoError(t, err)
	return created
}

func TestRegistrationCreateNormalisesInput(t *testing.T) {
	reg := newMemRegistry()
	svc := newRegistrationService(t, reg, nil)

	created := submit(t, svc, dto.CreateRegistrationRequest{
		FullName:  "  Ada Lovelace ",
		Email:     "  Ada@Example.COM ",
		Phone:     "08012345678",
		Role:      "supervisor",
		StartDate: "2026-01-05",
	})

	assert.Equal(t, "ada@example.com", created.Email)
	assert.Equal(t, "Ada Lovelace", created.FullName)
	assert.Equal(t, models.RequestedSupervisor, created.Role)
	assert.Equal(t, models.RegistrationPending, created.Status)
	require.NotNil(t, created.StartDate)
	assert.Equal(t, 5, created.StartDate.Day())
	require.Len(t, reg.audits, 1)
	assert.Equal(t, models.AuditActionRegistrationCreate, reg.audits[0].Action)
}

func TestRegistrationCreateValidates(t *testing.T) {
	svc := newRegistrationService(t, newMemRegistry(), nil)

	_, err := svc.Create(context.Background(), dto.CreateRegistrationRequest{FullName: "A", Email: "bad", Role: "PILOT"}, nil, "mgr", models.RequestMeta{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRegistrationCreateRejectsDuplicatePendingEmail(t *testing.T) {
	reg := newMemRegistry()
	reg.supervisors = []string{uuid.NewString()}
	svc := newRegistrationService(t, reg, nil)

	first := submit(t, svc, guardRequest("new.guard@x.com"))

	_, err := svc.Create(context.Background(), guardRequest("NEW.GUARD@x.com "), nil, "mgr", models.RequestMeta{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.Reject(context.Background(), first.ID, "director", dto.RejectRegistrationRequest{}, models.RequestMeta{})
	require.NoError(t, err)

	second := submit(t, svc, guardRequest("new.guard@x.com"))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRegistrationCreateRejectsActiveAccountEmail(t *testing.T) {
	reg := newMemRegistry()
	reg.users = []models.User{{ID: "u1", Email: "taken@x.com", Status: models.UserStatusActive}}
	svc := newRegistrationService(t, reg, nil)

	_, err := svc.Create(context.Background(), guardRequest("Taken@x.com"), nil, "mgr", models.RequestMeta{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestRegistrationCreateMapsPendingEmailConstraint(t *testing.T) {
	reg := newMemRegistry()
	reg.createErr = &pq.Error{Code: "23505", Constraint: repository.ConstraintPendingEmail}
	svc := newRegistrationService(t, reg, nil)

	_, err := svc.Create(context.Background(), guardRequest("race@x.com"), nil, "mgr", models.RequestMeta{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestRegistrationCreateStoresPhoto(t *testing.T) {
	reg := newMemRegistry()
	store, err := storage.NewLocalStorage(t.TempDir(), 1024, []string{"image/png"})
	require.NoError(t, err)
	signer := storage.NewURLSigner("secret", time.Minute)
	svc := newRegistrationService(t, reg, nil, WithPhotoStorage(store, signer, "/api/v1/files/"))

	photo := &dto.Upload{Filename: "me.png", ContentType: "image/png", Size: 4, Body: bytes.NewReader([]byte("\x89PNG"))}
	created, err := svc.Create(context.Background(), guardRequest("photo@x.com"), photo, "mgr", models.RequestMeta{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.ProfilePhoto, "profile-photos/"))

	detail, err := svc.Get(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(detail.ProfilePhotoURL, "/api/v1/files/"))

	big := &dto.Upload{Filename: "big.png", ContentType: "image/png", Size: 4096, Body: bytes.NewReader(make([]byte, 4096))}
	_, err = svc.Create(context.Background(), guardRequest("big@x.com"), big, "mgr", models.RequestMeta{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPayloadTooLarge))
}

func TestRegistrationGetNotFound(t *testing.T) {
	svc := newRegistrationService(t, newMemRegistry(), nil)

	_, err := svc.Get(context.Background(), uuid.NewString(), true)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Get(context.Background(), "not-a-uuid", true)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestApproveGuardEndToEnd(t *testing.T) {
	reg := newMemRegistry()
	supervisorID := uuid.NewString()
	reg.supervisors = []string{supervisorID}
	var delivered []CredentialsMessage
	sender := CredentialSenderFunc(func(_ context.Context, msg CredentialsMessage) error {
		delivered = append(delivered, msg)
		return nil
	})
	svc := newRegistrationService(t, reg, sender)

	req := submit(t, svc, guardRequest("new.guard@x.com"))
	result, err := svc.Approve(context.Background(), req.ID, "director-1", models.RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)

	assert.True(t, result.EmailSent)
	assert.Equal(t, models.RoleOperator, result.User.Role)
	assert.Equal(t, models.UserStatusActive, result.User.Status)
	assert.Equal(t, "New", result.User.FirstName)
	assert.Equal(t, "Guard", result.User.LastName)
	assert.Equal(t, "GRD00001", result.Credentials.EmployeeID)
	assert.Equal(t, "new.guard@x.com", result.Credentials.Username)
	assert.True(t, strings.HasPrefix(result.Credentials.Password, "Gf@GRD00001"))
	assert.Len(t, result.Credentials.Password, len("Gf@GRD00001")+8)

	require.Len(t, reg.operators, 1)
	assert.Equal(t, supervisorID, reg.operators[0].SupervisorID)
	assert.Equal(t, result.User.ID, reg.operators[0].UserID)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(reg.passwords[result.User.ID]), []byte(result.Credentials.Password)))

	stored, err := reg.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationApproved, stored.Status)
	require.NotNil(t, stored.GeneratedEmployeeID)
	assert.True(t, strings.HasPrefix(*stored.GeneratedEmployeeID, "GRD"))
	require.NotNil(t, stored.GeneratedPassword)
	assert.Equal(t, result.Credentials.Password, *stored.GeneratedPassword)

	require.Len(t, delivered, 1)
	assert.Equal(t, "new.guard@x.com", delivered[0].Email)
	assert.Equal(t, "New", delivered[0].FirstName)
}

func TestApproveProvisionsRoleProfiles(t *testing.T) {
	reg := newMemRegistry()
	svc := newRegistrationService(t, reg, nil)

	hr := dto.CreateRegistrationRequest{FullName: "Madonna", Email: "hr@x.com", Phone: "0800000000", Role: models.RequestedHR, Department: "People"}
	gs := dto.CreateRegistrationRequest{FullName: "Gen Sup", Email: "gs@x.com", Phone: "0800000001", Role: models.RequestedGeneralSupervisor}

	hrResult, err := svc.Approve(context.Background(), submit(t, svc, hr).ID, "d", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSecretary, hrResult.User.Role)
	assert.Equal(t, "HR00001", hrResult.Credentials.EmployeeID)
	assert.Equal(t, "Madonna", hrResult.User.FirstName)
	assert.Equal(t, "Madonna", hrResult.User.LastName)
	require.Len(t, reg.secretaries, 1)
	assert.Equal(t, "People", reg.secretaries[0].Department)

	gsResult, err := svc.Approve(context.Background(), submit(t, svc, gs).ID, "d", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleGeneralSupervisor, gsResult.User.Role)
	assert.Equal(t, "GSUP00001", gsResult.Credentials.EmployeeID)
	require.Len(t, reg.supervised, 1)
	assert.Equal(t, string(models.RequestedGeneralSupervisor), reg.supervised[0].SupervisorType)
}

func TestApproveSequentialIDsIncrease(t *testing.T) {
	reg := newMemRegistry()
	reg.supervisors = []string{uuid.NewString()}
	svc := newRegistrationService(t, reg, nil)

	var ids []string
	for i := 0; i < 5; i++ {
		req := submit(t, svc, guardRequest(uuid.NewString()[:8]+"@x.com"))
		result, err := svc.Approve(context.Background(), req.ID, "d", models.RequestMeta{})
		require.NoError(t, err)
		ids = append(ids, result.Credentials.EmployeeID)
	}

	assert.Equal(t, []string{"GRD00001", "GRD00002", "GRD00003", "GRD00004", "GRD00005"}, ids)
}

func TestApproveGuardWithoutSupervisor(t *testing.T) {
	reg := newMemRegistry()
	svc := newRegistrationService(t, reg, nil)

	req := submit(t, svc, guardRequest("lonely@x.com"))
	_, err := svc.Approve(context.Background(), req.ID, "d", models.RequestMeta{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
	assert.Equal(t, "No supervisor available to assign this guard", appErrors.FromError(err).Message)

	stored, _ := reg.GetByID(context.Background(), req.ID)
	assert.Equal(t, models.RegistrationPending, stored.Status)
	assert.Empty(t, reg.users)
}

func TestReviewedRequestsAreTerminal(t *testing.T) {
	reg := newMemRegistry()
	reg.supervisors = []string{uuid.NewString()}
	svc := newRegistrationService(t, reg, nil)
	ctx := context.Background()

	approved := submit(t, svc, guardRequest("a@x.com"))
	_, err := svc.Approve(ctx, approved.ID, "d", models.RequestMeta{})
	require.NoError(t, err)

	reason := "  duplicate person "
	rejected, err := svc.Reject(ctx, submit(t, svc, guardRequest("b@x.com")).ID, "d", dto.RejectRegistrationRequest{Reason: &reason}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "duplicate person", *rejected.RejectionReason)

	for _, id := range []string{approved.ID, rejected.ID} {
		_, err = svc.Approve(ctx, id, "d", models.RequestMeta{})
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState), "approve %s", id)
		_, err = svc.Reject(ctx, id, "d", dto.RejectRegistrationRequest{}, models.RequestMeta{})
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState), "reject %s", id)
	}
	assert.Len(t, reg.users, 1)
}

func TestApproveLostRaceIsInvalidState(t *testing.T) {
	reg := newMemRegistry()
	svc := newRegistrationService(t, reg, nil)
	req := submit(t, svc, dto.CreateRegistrationRequest{FullName: "Sec Retary", Email: "s@x.com", Phone: "0800000002", Role: models.RequestedSecretary})

	reg.approveErr = sql.ErrNoRows
	_, err := svc.Approve(context.Background(), req.ID, "d", models.RequestMeta{})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))

	reg.approveErr = &pq.Error{Code: "23505", Constraint: repository.ConstraintUserEmail}
	_, err = svc.Approve(context.Background(), req.ID, "d", models.RequestMeta{})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestApproveSurvivesDeliveryFailure(t *testing.T) {
	reg := newMemRegistry()
	reg.supervisors = []string{uuid.NewString()}
	queue := &recordingQueue{}
	sender := CredentialSenderFunc(func(context.Context, CredentialsMessage) error {
		return errors.New("smtp down")
	})
	svc := newRegistrationService(t, reg, sender, WithCredentialRetry(queue))

	req := submit(t, svc, guardRequest("unlucky@x.com"))
	result, err := svc.Approve(context.Background(), req.ID, "d", models.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, result.EmailSent)
	assert.NotEmpty(t, result.Credentials.Password)

	stored, _ := reg.GetByID(context.Background(), req.ID)
	assert.Equal(t, models.RegistrationApproved, stored.Status)

	require.Len(t, queue.jobs, 1)
	msg, ok := queue.jobs[0].Payload.(CredentialsMessage)
	require.True(t, ok)
	assert.Equal(t, result.Credentials.Password, msg.Password)
}

func TestRegistrationListCountsArePendingOnly(t *testing.T) {
	reg := newMemRegistry()
	reg.supervisors = []string{uuid.NewString()}
	svc := newRegistrationService(t, reg, nil)
	ctx := context.Background()

	submit(t, svc, guardRequest("g1@x.com"))
	submit(t, svc, dto.CreateRegistrationRequest{FullName: "Sup One", Email: "s1@x.com", Phone: "0800000003", Role: models.RequestedSupervisor})
	approved := submit(t, svc, guardRequest("g2@x.com"))
	_, err := svc.Approve(ctx, approved.ID, "d", models.RequestMeta{})
	require.NoError(t, err)

	list, page, err := svc.List(ctx, dto.RegistrationQuery{Status: "approved"})
	require.NoError(t, err)
	require.Len(t, list.Requests, 1)
	assert.Nil(t, list.Requests[0].GeneratedPassword)
	assert.Equal(t, 1, page.TotalCount)
	assert.ElementsMatch(t, []models.RoleCount{
		{Role: models.RequestedSupervisor, Count: 1},
		{Role: models.RequestedGuard, Count: 1},
	}, list.RoleCounts)
	assert.NotNil(t, list.ManagerCounts)

	list, _, err = svc.List(ctx, dto.RegistrationQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalCount)

	_, _, err = svc.List(ctx, dto.RegistrationQuery{Status: "LOST"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRegistrationGetRedactsWithoutSecret(t *testing.T) {
	reg := newMemRegistry()
	svc := newRegistrationService(t, reg, nil)
	req := submit(t, svc, dto.CreateRegistrationRequest{FullName: "Sup Two", Email: "s2@x.com", Phone: "0800000004", Role: models.RequestedSupervisor})
	_, err := svc.Approve(context.Background(), req.ID, "d", models.RequestMeta{})
	require.NoError(t, err)

	withSecret, err := svc.Get(context.Background(), req.ID, true)
	require.NoError(t, err)
	assert.NotNil(t, withSecret.GeneratedPassword)

	without, err := svc.Get(context.Background(), req.ID, false)
	require.NoError(t, err)
	assert.Nil(t, without.GeneratedPassword)
}

func TestRegistrationExport(t *testing.T) {
	reg := newMemRegistry()
	svc := newRegistrationService(t, reg, nil, WithRegistrationClock(func() time.Time {
		return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	}))
	submit(t, svc, guardRequest("export@x.com"))

	payload, filename, contentType, err := svc.Export(context.Background(), dto.RegistrationQuery{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "registration-requests-20260304.csv", filename)
	assert.Contains(t, contentType, "text/csv")
	assert.Contains(t, string(payload), "export@x.com")

	_, _, _, err = svc.Export(context.Background(), dto.RegistrationQuery{}, "xlsx")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRegistrationStatsUsesCache(t *testing.T) {
	reg := newMemRegistry()
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, zap.NewNop(), true)
	svc := newRegistrationService(t, reg, nil, WithRegistrationCache(cache, time.Minute))
	ctx := context.Background()

	submit(t, svc, guardRequest("stats@x.com"))
	stats, hit, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, stats.Pending)

	_, hit, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, reg.statsCalls)

	submit(t, svc, guardRequest("stats2@x.com"))
	stats, hit, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 2, reg.statsCalls)
}
