package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/guardforce-api/internal/dto"
	"github.com/noah-isme/guardforce-api/internal/models"
	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
)

// roleTokens treats the bearer token as the caller's role.
type roleTokens struct{}

func (roleTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if token == "" || token == "expired" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: "user-" + strings.ToLower(token), Role: models.UserRole(token)}, nil
}

type auditRecorder struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (a *auditRecorder) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

type registrationServiceMock struct {
	created       dto.CreateRegistrationRequest
	photo         []byte
	photoType     string
	requesterID   string
	includeSecret bool
	reviewerID    string
	rejectReason  *string
	exportFormat  string
	approveErr    error
	cacheHit      bool
}

func (m *registrationServiceMock) Create(_ context.Context, req dto.CreateRegistrationRequest, photo *dto.Upload, requesterID string, _ models.RequestMeta) (*models.RegistrationRequest, error) {
	m.created = req
	m.requesterID = requesterID
	if photo != nil {
		m.photo, _ = io.ReadAll(photo.Body)
		m.photoType = photo.ContentType
	}
	return &models.RegistrationRequest{ID: "req-1", Email: req.Email, Role: req.Role, Status: models.RegistrationPending}, nil
}

func (m *registrationServiceMock) List(_ context.Context, query dto.RegistrationQuery) (*dto.RegistrationList, *models.Pagination, error) {
	return &dto.RegistrationList{
		Requests:      []models.RegistrationRequest{{ID: "req-1", Role: models.RequestedRole(query.Role)}},
		TotalCount:    1,
		RoleCounts:    []models.RoleCount{},
		ManagerCounts: []models.ManagerCount{},
	}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (m *registrationServiceMock) Get(_ context.Context, id string, includeSecret bool) (*dto.RegistrationDetail, error) {
	if id == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "registration request not found")
	}
	m.includeSecret = includeSecret
	return &dto.RegistrationDetail{RegistrationRequest: models.RegistrationRequest{ID: id}}, nil
}

func (m *registrationServiceMock) Stats(context.Context) (*models.RegistrationStats, bool, error) {
	return &models.RegistrationStats{Pending: 3, ApprovedToday: 1}, m.cacheHit, nil
}

func (m *registrationServiceMock) Managers(context.Context) ([]models.ManagerCount, error) {
	return []models.ManagerCount{{ManagerID: "m1", Count: 2}}, nil
}

func (m *registrationServiceMock) Export(_ context.Context, _ dto.RegistrationQuery, format string) ([]byte, string, string, error) {
	m.exportFormat = format
	return []byte("Full Name,Email\n"), "registration-requests-20261014.csv", "text/csv", nil
}

func (m *registrationServiceMock) Approve(_ context.Context, id, reviewerID string, _ models.RequestMeta) (*models.ApprovalResult, error) {
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	m.reviewerID = reviewerID
	return &models.ApprovalResult{
		User:        models.UserInfo{ID: "usr-1", Role: models.RoleOperator},
		Credentials: models.Credentials{Username: "new.guard@x.com", Password: "Gf@GRD00001abcd", EmployeeID: "GRD00001"},
		EmailSent:   false,
		Request:     models.RegistrationRequest{ID: id, Status: models.RegistrationApproved},
	}, nil
}

func (m *registrationServiceMock) Reject(_ context.Context, id, reviewerID string, body dto.RejectRegistrationRequest, _ models.RequestMeta) (*models.RegistrationRequest, error) {
	m.reviewerID = reviewerID
	m.rejectReason = body.Reason
	return &models.RegistrationRequest{ID: id, Status: models.RegistrationRejected, RejectionReason: body.Reason}, nil
}

type beatServiceMock struct{ created []dto.CreateBeatRequest }

func (m *beatServiceMock) Create(_ context.Context, req dto.CreateBeatRequest, _ string, _ models.RequestMeta) (*models.Beat, error) {
	m.created = append(m.created, req)
	return &models.Beat{ID: "beat-1", LocationID: req.LocationID, Name: req.Name, Code: "BEAT-ABC-001"}, nil
}

func (m *beatServiceMock) Get(_ context.Context, id string) (*models.Beat, error) {
	return &models.Beat{ID: id, Code: "BEAT-ABC-001"}, nil
}

func (m *beatServiceMock) List(context.Context, dto.BeatQuery) ([]models.Beat, *models.Pagination, error) {
	return []models.Beat{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *struct{ Code string } `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func newTestRouter(reg *registrationServiceMock, beats *beatServiceMock, audit *auditRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{APIPrefix: "/api/v1"}, Handlers{
		Registration: NewRegistrationHandler(reg),
		Beat:         NewBeatHandler(beats),
	}, RouterDeps{Tokens: roleTokens{}, Audit: audit})
}

func doRequest(r http.Handler, method, path, role string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+role)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRegistrationCreateJSON(t *testing.T) {
	reg := &registrationServiceMock{}
	router := newTestRouter(reg, &beatServiceMock{}, &auditRecorder{})

	body := `{"fullName":"New Guard","email":"new.guard@x.com","phone":"08012345678","role":"GUARD"}`
	w := doRequest(router, http.MethodPost, "/api/v1/registration-requests", "MANAGER", strings.NewReader(body), "application/json")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "new.guard@x.com", reg.created.Email)
	assert.Equal(t, models.RequestedRole("GUARD"), reg.created.Role)
	assert.Equal(t, "user-manager", reg.requesterID)
	assert.Contains(t, string(decode(t, w).Data), `"status":"PENDING"`)
}

func TestRegistrationCreateMultipartWithPhoto(t *testing.T) {
	reg := &registrationServiceMock{}
	router := newTestRouter(reg, &beatServiceMock{}, &auditRecorder{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("fullName", "Ada Lovelace"))
	require.NoError(t, mw.WriteField("email", "ada@x.com"))
	require.NoError(t, mw.WriteField("phone", "08012345678"))
	require.NoError(t, mw.WriteField("role", "HR"))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="profilePhoto"; filename="ada.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := doRequest(router, http.MethodPost, "/api/v1/registration-requests", "MANAGER", &buf, mw.FormDataContentType())

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Ada Lovelace", reg.created.FullName)
	assert.Equal(t, []byte("png-bytes"), reg.photo)
	assert.Equal(t, "image/png", reg.photoType)
}

func TestRegistrationCreateInvalidBody(t *testing.T) {
	router := newTestRouter(&registrationServiceMock{}, &beatServiceMock{}, &auditRecorder{})
	w := doRequest(router, http.MethodPost, "/api/v1/registration-requests", "MANAGER", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decode(t, w).Error.Code)
}

func TestRegistrationRoleGating(t *testing.T) {
	router := newTestRouter(&registrationServiceMock{}, &beatServiceMock{}, &auditRecorder{})

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		status int
	}{
		{"no token", http.MethodGet, "/api/v1/registration-requests/pending", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/registration-requests/pending", "expired", http.StatusUnauthorized},
		{"manager cannot list", http.MethodGet, "/api/v1/registration-requests/pending", "MANAGER", http.StatusForbidden},
		{"director lists", http.MethodGet, "/api/v1/registration-requests/pending", "DIRECTOR", http.StatusOK},
		{"director cannot submit", http.MethodPost, "/api/v1/registration-requests", "DIRECTOR", http.StatusForbidden},
		{"manager cannot approve", http.MethodPost, "/api/v1/registration-requests/r1/approve", "MANAGER", http.StatusForbidden},
		{"manager cannot reject", http.MethodPost, "/api/v1/registration-requests/r1/reject", "MANAGER", http.StatusForbidden},
		{"operator cannot view", http.MethodGet, "/api/v1/registration-requests/r1", "OPERATOR", http.StatusForbidden},
		{"manager sees stats", http.MethodGet, "/api/v1/registration-requests/stats", "MANAGER", http.StatusOK},
		{"manager cannot export", http.MethodGet, "/api/v1/registration-requests/export", "MANAGER", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, tc.method, tc.path, tc.role, nil, "")
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRegistrationPendingListing(t *testing.T) {
	router := newTestRouter(&registrationServiceMock{}, &beatServiceMock{}, &auditRecorder{})
	w := doRequest(router, http.MethodGet, "/api/v1/registration-requests/pending?role=GUARD", "DIRECTOR", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	var list dto.RegistrationList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.TotalCount)
	assert.Equal(t, models.RequestedRole("GUARD"), list.Requests[0].Role)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestRegistrationGetExposesSecretOnlyToDirector(t *testing.T) {
	reg := &registrationServiceMock{}
	router := newTestRouter(reg, &beatServiceMock{}, &auditRecorder{})

	w := doRequest(router, http.MethodGet, "/api/v1/registration-requests/r1", "DIRECTOR", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reg.includeSecret)

	w = doRequest(router, http.MethodGet, "/api/v1/registration-requests/r1", "MANAGER", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, reg.includeSecret)

	w = doRequest(router, http.MethodGet, "/api/v1/registration-requests/missing", "DIRECTOR", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistrationApprove(t *testing.T) {
	reg := &registrationServiceMock{}
	router := newTestRouter(reg, &beatServiceMock{}, &auditRecorder{})

	w := doRequest(router, http.MethodPost, "/api/v1/registration-requests/r1/approve", "DIRECTOR", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-director", reg.reviewerID)

	var result models.ApprovalResult
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.False(t, result.EmailSent)
	assert.Equal(t, "GRD00001", result.Credentials.EmployeeID)
	assert.Equal(t, models.RegistrationApproved, result.Request.Status)
}

func TestRegistrationApproveErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{appErrors.Clone(appErrors.ErrInvalidState, "registration request already processed"), http.StatusBadRequest, appErrors.ErrInvalidState.Code},
		{appErrors.Clone(appErrors.ErrPreconditionFailed, "no supervisor available"), http.StatusBadRequest, appErrors.ErrPreconditionFailed.Code},
		{appErrors.Clone(appErrors.ErrNotFound, "registration request not found"), http.StatusNotFound, appErrors.ErrNotFound.Code},
		{appErrors.Clone(appErrors.ErrConflict, "email already registered"), http.StatusConflict, appErrors.ErrConflict.Code},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			router := newTestRouter(&registrationServiceMock{approveErr: tc.err}, &beatServiceMock{}, &auditRecorder{})
			w := doRequest(router, http.MethodPost, "/api/v1/registration-requests/r1/approve", "DIRECTOR", nil, "")
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decode(t, w).Error.Code)
		})
	}
}

func TestRegistrationReject(t *testing.T) {
	reg := &registrationServiceMock{}
	router := newTestRouter(reg, &beatServiceMock{}, &auditRecorder{})

	w := doRequest(router, http.MethodPost, "/api/v1/registration-requests/r1/reject", "DIRECTOR", strings.NewReader(`{"reason":"incomplete documents"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, reg.rejectReason)
	assert.Equal(t, "incomplete documents", *reg.rejectReason)

	reg.rejectReason = nil
	w = doRequest(router, http.MethodPost, "/api/v1/registration-requests/r2/reject", "DIRECTOR", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, reg.rejectReason)

	// unknown-length empty body, as sent with chunked transfer encoding
	w = doRequest(router, http.MethodPost, "/api/v1/registration-requests/r3/reject", "DIRECTOR", io.MultiReader(strings.NewReader("")), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, reg.rejectReason)

	w = doRequest(router, http.MethodPost, "/api/v1/registration-requests/r4/reject", "DIRECTOR", strings.NewReader(`{"reason":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationStatsReportsCacheHit(t *testing.T) {
	router := newTestRouter(&registrationServiceMock{cacheHit: true}, &beatServiceMock{}, &auditRecorder{})
	w := doRequest(router, http.MethodGet, "/api/v1/registration-requests/stats", "DIRECTOR", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	var stats models.RegistrationStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 3, stats.Pending)
}

func TestRegistrationManagers(t *testing.T) {
	router := newTestRouter(&registrationServiceMock{}, &beatServiceMock{}, &auditRecorder{})
	w := doRequest(router, http.MethodGet, "/api/v1/registration-requests/managers", "DIRECTOR", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"managerId":"m1"`)
}

func TestRegistrationExportIsAudited(t *testing.T) {
	reg := &registrationServiceMock{}
	audit := &auditRecorder{}
	router := newTestRouter(reg, &beatServiceMock{}, audit)

	w := doRequest(router, http.MethodGet, "/api/v1/registration-requests/export?format=csv&status=ALL", "DIRECTOR", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "registration-requests-20261014.csv")
	assert.Equal(t, "csv", reg.exportFormat)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRegistrationExport, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "user-director", *audit.logs[0].UserID)
}

func TestBitRoutesAliasBeats(t *testing.T) {
	beats := &beatServiceMock{}
	router := newTestRouter(&registrationServiceMock{}, beats, &auditRecorder{})
	body := `{"locationId":"6f1c1a8e-43f2-4a4b-9a65-6d1ad1f0b001","name":"North Gate"}`

	w := doRequest(router, http.MethodPost, "/api/v1/bits", "GENERAL_SUPERVISOR", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusCreated, w.Code)
	w = doRequest(router, http.MethodPost, "/api/v1/beats", "MANAGER", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, beats.created, 2)

	w = doRequest(router, http.MethodPost, "/api/v1/bits", "OPERATOR", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/bits/beat-1", "OPERATOR", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "BEAT-ABC-001")
}
