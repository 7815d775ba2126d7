package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/guardforce-api/internal/dto"
	"github.com/noah-isme/guardforce-api/internal/models"
	"github.com/noah-isme/guardforce-api/internal/repository"
	"github.com/noah-isme/guardforce-api/pkg/database"
	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
	"github.com/noah-isme/guardforce-api/pkg/export"
	"github.com/noah-isme/guardforce-api/pkg/jobs"
	"github.com/noah-isme/guardforce-api/pkg/storage"
)

const (
	dateLayout          = "2006-01-02"
	photoFolder         = "profile-photos"
	passwordSuffixLen   = 8
	exportPageSize      = 100
	credentialJobType   = "credentials.redeliver"
	defaultPasswordSeed = "Gf@"
)

type registrationStore interface {
	Create(ctx context.Context, req *models.RegistrationRequest) error
	GetByID(ctx context.Context, id string) (*models.RegistrationRequest, error)
	PendingEmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationRequest, int, error)
	RoleCounts(ctx context.Context) ([]models.RoleCount, error)
	ManagerCounts(ctx context.Context) ([]models.ManagerCount, error)
	Stats(ctx context.Context, window models.StatsWindow) (*models.RegistrationStats, error)
	Approve(ctx context.Context, params repository.ApproveParams) error
	Reject(ctx context.Context, id, reviewerID string, reason *string, reviewedAt time.Time) error
}

type accountLookup interface {
	ActiveEmailExists(ctx context.Context, email string) (bool, error)
}

type supervisorLookup interface {
	AnySupervisorID(ctx context.Context) (string, error)
}

type locationLookup interface {
	GetByID(ctx context.Context, id string) (*models.Location, error)
}

type photoStore interface {
	Validate(contentType string, size int64) error
	SaveUpload(folder, originalName, contentType string, r io.Reader) (string, error)
	Delete(rel string) error
}

type photoSigner interface {
	Sign(relPath string) (string, time.Time, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// RegistrationService runs the personnel onboarding workflow.
type RegistrationService struct {
	store       registrationStore
	accounts    accountLookup
	supervisors supervisorLookup
	locations   locationLookup
	employeeIDs codeGenerator
	sender      CredentialSender
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger

	cache          *CacheService
	statsTTL       time.Duration
	metrics        *MetricsService
	retry          jobEnqueuer
	photos         photoStore
	signer         photoSigner
	photoURLPrefix string
	passwordPrefix string
	hashCost       int
	now            func() time.Time
}

// RegistrationServiceOption configures optional collaborators.
type RegistrationServiceOption func(*RegistrationService)

// WithRegistrationCache caches stats for ttl.
func WithRegistrationCache(cache *CacheService, ttl time.Duration) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.cache = cache
		s.statsTTL = ttl
	}
}

// WithRegistrationMetrics records domain counters.
func WithRegistrationMetrics(metrics *MetricsService) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.metrics = metrics
	}
}

// WithCredentialRetry enqueues failed credential deliveries for redelivery.
func WithCredentialRetry(queue jobEnqueuer) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.retry = queue
	}
}

// WithPhotoStorage enables profile photo uploads. Detail responses link photos
// under urlPrefix with a signed token.
func WithPhotoStorage(photos photoStore, signer photoSigner, urlPrefix string) RegistrationServiceOption {
	return func(s *RegistrationService) {
		s.photos = photos
		s.signer = signer
		s.photoURLPrefix = strings.TrimRight(urlPrefix, "/")
	}
}

// WithPasswordPrefix sets the literal segment of temporary passwords.
func WithPasswordPrefix(prefix string) RegistrationServiceOption {
	return func(s *RegistrationService) {
		if prefix != "" {
			s.passwordPrefix = prefix
		}
	}
}

// WithPasswordHashCost overrides the bcrypt cost.
func WithPasswordHashCost(cost int) RegistrationServiceOption {
	return func(s *RegistrationService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.hashCost = cost
		}
	}
}

// WithRegistrationClock overrides the time source.
func WithRegistrationClock(now func() time.Time) RegistrationServiceOption {
	return func(s *RegistrationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRegistrationService constructs the service.
func NewRegistrationService(
	store registrationStore,
	accounts accountLookup,
	supervisors supervisorLookup,
	locations locationLookup,
	employeeIDs codeGenerator,
	sender CredentialSender,
	audit auditLogger,
	validate *validator.Validate,
	logger *zap.Logger,
	opts ...RegistrationServiceOption,
) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = noopSender{}
	}
	svc := &RegistrationService{
		store:          store,
		accounts:       accounts,
		supervisors:    supervisors,
		locations:      locations,
		employeeIDs:    employeeIDs,
		sender:         sender,
		audit:          audit,
		validator:      validate,
		logger:         logger,
		passwordPrefix: defaultPasswordSeed,
		hashCost:       bcrypt.DefaultCost,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create stores a new PENDING request submitted by requesterID.
func (s *RegistrationService) Create(ctx context.Context, req dto.CreateRegistrationRequest, photo *dto.Upload, requesterID string, meta models.RequestMeta) (*models.RegistrationRequest, error) {
	req.Email = models.NormalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Role = models.RequestedRole(strings.ToUpper(strings.TrimSpace(string(req.Role))))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	record, err := s.buildRequest(ctx, req, requesterID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailAvailable(ctx, record.Email); err != nil {
		return nil, err
	}

	if photo != nil {
		path, err := s.savePhoto(photo)
		if err != nil {
			return nil, err
		}
		record.ProfilePhoto = path
	}

	if err := s.store.Create(ctx, record); err != nil {
		s.discardPhoto(record.ProfilePhoto)
		if database.IsUniqueViolation(err, repository.ConstraintPendingEmail) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a pending registration request already exists for this email")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration request")
	}

	s.metrics.RegistrationSubmitted(record.Role)
	s.cache.Invalidate(ctx, cachePatternRegistration)
	s.emitAudit(ctx, requesterID, models.AuditActionRegistrationCreate, record.ID, meta, map[string]interface{}{
		"email": record.Email,
		"role":  record.Role,
	})
	return record, nil
}

func (s *RegistrationService) buildRequest(ctx context.Context, req dto.CreateRegistrationRequest, requesterID string) (*models.RegistrationRequest, error) {
	record := &models.RegistrationRequest{
		FullName:              req.FullName,
		Email:                 req.Email,
		Phone:                 req.Phone,
		Role:                  req.Role,
		Department:            strings.TrimSpace(req.Department),
		Gender:                strings.TrimSpace(req.Gender),
		Address:               strings.TrimSpace(req.Address),
		NationalID:            strings.TrimSpace(req.NationalID),
		EmergencyContactName:  strings.TrimSpace(req.EmergencyContactName),
		EmergencyContactPhone: strings.TrimSpace(req.EmergencyContactPhone),
		RequestedBy:           requesterID,
	}
	if id := strings.TrimSpace(req.LocationID); id != "" {
		if s.locations != nil {
			if _, err := s.locations.GetByID(ctx, id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
			}
		}
		record.LocationID = &id
	}
	var err error
	if record.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD")
	}
	if record.DateOfBirth, err = parseOptionalDate(req.DateOfBirth); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dateOfBirth must be YYYY-MM-DD")
	}
	return record, nil
}

func (s *RegistrationService) ensureEmailAvailable(ctx context.Context, email string) error {
	active, err := s.accounts.ActiveEmailExists(ctx, email)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if active {
		return appErrors.Clone(appErrors.ErrConflict, "an active account already uses this email")
	}
	pending, err := s.store.PendingEmailExists(ctx, email)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
	}
	if pending {
		return appErrors.Clone(appErrors.ErrConflict, "a pending registration request already exists for this email")
	}
	return nil
}

func (s *RegistrationService) savePhoto(photo *dto.Upload) (string, error) {
	if s.photos == nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "profile photo uploads are disabled")
	}
	if err := s.photos.Validate(photo.ContentType, photo.Size); err != nil {
		return "", mapStorageError(err)
	}
	path, err := s.photos.SaveUpload(photoFolder, photo.Filename, photo.ContentType, photo.Body)
	if err != nil {
		return "", mapStorageError(err)
	}
	return path, nil
}

func (s *RegistrationService) discardPhoto(path string) {
	if path == "" || s.photos == nil {
		return
	}
	if err := s.photos.Delete(path); err != nil {
		s.logger.Warn("failed to remove orphaned profile photo", zap.String("path", path), zap.Error(err))
	}
}

// List returns filtered requests with role and manager breakdowns of all
// pending requests. Status defaults to PENDING; ALL lists every status.
func (s *RegistrationService) List(ctx context.Context, query dto.RegistrationQuery) (*dto.RegistrationList, *models.Pagination, error) {
	filter, err := parseRegistrationQuery(query)
	if err != nil {
		return nil, nil, err
	}
	requests, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registration requests")
	}
	roleCounts, err := s.store.RoleCounts(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests by role")
	}
	managerCounts, err := s.store.ManagerCounts(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests by manager")
	}

	redacted := make([]models.RegistrationRequest, len(requests))
	for i := range requests {
		redacted[i] = requests[i].Redacted()
	}
	list := &dto.RegistrationList{
		Requests:      redacted,
		TotalCount:    total,
		RoleCounts:    nonNilRoleCounts(roleCounts),
		ManagerCounts: nonNilManagerCounts(managerCounts),
	}
	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return list, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one request. The temporary password is only kept when
// includeSecret is set.
func (s *RegistrationService) Get(ctx context.Context, id string, includeSecret bool) (*dto.RegistrationDetail, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !includeSecret {
		redacted := req.Redacted()
		req = &redacted
	}
	detail := &dto.RegistrationDetail{RegistrationRequest: *req}
	if req.ProfilePhoto != "" && s.signer != nil {
		token, _, err := s.signer.Sign(req.ProfilePhoto)
		if err != nil {
			s.logger.Warn("failed to sign profile photo url", zap.String("id", req.ID), zap.Error(err))
		} else {
			detail.ProfilePhotoURL = s.photoURLPrefix + "/" + token
		}
	}
	return detail, nil
}

// Stats returns review throughput counters and whether they came from cache.
func (s *RegistrationService) Stats(ctx context.Context) (*models.RegistrationStats, bool, error) {
	var cached models.RegistrationStats
	if s.cache.Get(ctx, cacheKeyRegistrationStats, &cached) {
		return &cached, true, nil
	}
	stats, err := s.store.Stats(ctx, models.NewStatsWindow(s.now()))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute registration stats")
	}
	s.cache.Set(ctx, cacheKeyRegistrationStats, stats, s.statsTTL)
	return stats, false, nil
}

// Managers lists managers with at least one pending request.
func (s *RegistrationService) Managers(ctx context.Context) ([]models.ManagerCount, error) {
	counts, err := s.store.ManagerCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list managers")
	}
	return nonNilManagerCounts(counts), nil
}

// Export renders every request matching query. Temporary passwords are never exported.
func (s *RegistrationService) Export(ctx context.Context, query dto.RegistrationQuery, rawFormat string) ([]byte, string, string, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	filter, err := parseRegistrationQuery(query)
	if err != nil {
		return nil, "", "", err
	}
	filter.PageSize = exportPageSize

	dataset := export.Dataset{
		Title:   "Registration Requests",
		Headers: []string{"Full Name", "Email", "Phone", "Role", "Status", "Requested By", "Employee ID", "Submitted"},
	}
	for page := 1; ; page++ {
		filter.Page = page
		requests, total, err := s.store.List(ctx, filter)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registration requests")
		}
		for _, req := range requests {
			dataset.Rows = append(dataset.Rows, exportRow(req.Redacted()))
		}
		if len(requests) == 0 || len(dataset.Rows) >= total {
			break
		}
	}

	renderer := export.For(format)
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	filename := fmt.Sprintf("registration-requests-%s.%s", s.now().Format("20060102"), renderer.Extension())
	return payload, filename, renderer.ContentType(), nil
}

// Approve provisions the account for a PENDING request. User, profile and the
// request update commit together; credential delivery happens afterwards and
// its failure only clears EmailSent.
func (s *RegistrationService) Approve(ctx context.Context, id, reviewerID string, meta models.RequestMeta) (*models.ApprovalResult, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := req.Status.Transition(models.RegistrationApproved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, "registration request already processed")
	}

	var supervisorID string
	if req.Role.Profile() == models.ProfileOperator {
		supervisorID, err = s.supervisors.AnySupervisorID(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "No supervisor available to assign this guard")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up supervisor")
		}
	}

	employeeID, err := s.employeeIDs.Generate(ctx, "", req.Role.EmployeeIDPrefix())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate employee id")
	}
	password, err := s.temporaryPassword(employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate temporary password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash temporary password")
	}

	firstName, lastName := models.SplitFullName(req.FullName)
	provisioning := models.Provisioning{
		User: models.User{
			ID:           uuid.NewString(),
			Email:        req.Email,
			PasswordHash: string(hash),
			FullName:     req.FullName,
			FirstName:    firstName,
			LastName:     lastName,
			Phone:        req.Phone,
			Role:         req.Role.AccountRole(),
			Status:       models.UserStatusActive,
			EmployeeID:   &employeeID,
		},
	}
	switch req.Role.Profile() {
	case models.ProfileSupervisor:
		provisioning.Supervisor = &models.Supervisor{SupervisorType: string(req.Role), LocationID: req.LocationID}
	case models.ProfileSecretary:
		provisioning.Secretary = &models.Secretary{LocationID: req.LocationID, Department: req.Department}
	case models.ProfileOperator:
		provisioning.Operator = &models.Operator{SupervisorID: supervisorID, LocationID: req.LocationID}
	}

	reviewedAt := s.now().UTC()
	err = s.store.Approve(ctx, repository.ApproveParams{
		RequestID:    req.ID,
		ReviewerID:   reviewerID,
		ReviewedAt:   reviewedAt,
		Password:     password,
		Provisioning: provisioning,
	})
	if err != nil {
		return nil, mapApproveError(err)
	}

	user := provisioning.User
	req.Status = models.RegistrationApproved
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &reviewedAt
	req.GeneratedUserID = &user.ID
	req.GeneratedEmployeeID = &employeeID
	req.GeneratedPassword = &password

	emailSent := s.deliverCredentials(ctx, CredentialsMessage{
		Email:     user.Email,
		FirstName: user.FirstName,
		Username:  user.Email,
		Password:  password,
	})

	s.metrics.RegistrationReviewed(models.RegistrationApproved)
	s.cache.Invalidate(ctx, cachePatternRegistration)
	s.emitAudit(ctx, reviewerID, models.AuditActionRegistrationApprove, req.ID, meta, map[string]interface{}{
		"userId":     user.ID,
		"employeeId": employeeID,
		"role":       user.Role,
		"emailSent":  emailSent,
	})

	return &models.ApprovalResult{
		User:        user.Info(),
		Credentials: models.Credentials{Username: user.Email, Password: password, EmployeeID: employeeID},
		EmailSent:   emailSent,
		Request:     *req,
	}, nil
}

// Reject closes a PENDING request without provisioning an account.
func (s *RegistrationService) Reject(ctx context.Context, id, reviewerID string, body dto.RejectRegistrationRequest, meta models.RequestMeta) (*models.RegistrationRequest, error) {
	if err := s.validator.Struct(body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := req.Status.Transition(models.RegistrationRejected); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, "registration request already processed")
	}

	var reason *string
	if body.Reason != nil {
		reason = optionalString(*body.Reason)
	}
	reviewedAt := s.now().UTC()
	if err := s.store.Reject(ctx, req.ID, reviewerID, reason, reviewedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "registration request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject registration request")
	}

	req.Status = models.RegistrationRejected
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &reviewedAt
	req.RejectionReason = reason

	s.metrics.RegistrationReviewed(models.RegistrationRejected)
	s.cache.Invalidate(ctx, cachePatternRegistration)
	s.emitAudit(ctx, reviewerID, models.AuditActionRegistrationReject, req.ID, meta, map[string]interface{}{
		"reason": reason,
	})
	redacted := req.Redacted()
	return &redacted, nil
}

func (s *RegistrationService) load(ctx context.Context, id string) (*models.RegistrationRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "registration request not found")
	}
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration request")
	}
	return req, nil
}

func (s *RegistrationService) temporaryPassword(employeeID string) (string, error) {
	suffix, err := randomAlphanumeric(passwordSuffixLen)
	if err != nil {
		return "", err
	}
	return s.passwordPrefix + employeeID + suffix, nil
}

func (s *RegistrationService) deliverCredentials(ctx context.Context, msg CredentialsMessage) bool {
	err := s.sender.SendCredentials(ctx, msg)
	s.metrics.CredentialDelivery(err == nil)
	if err == nil {
		return true
	}
	s.logger.Warn("credential delivery failed", zap.String("email", msg.Email), zap.Error(err))
	if s.retry != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: credentialJobType, Payload: msg}
		if qerr := s.retry.Enqueue(job); qerr != nil {
			s.logger.Warn("failed to queue credential redelivery", zap.String("email", msg.Email), zap.Error(qerr))
		}
	}
	return false
}

func (s *RegistrationService) emitAudit(ctx context.Context, actorID, action, resourceID string, meta models.RequestMeta, values map[string]interface{}) {
	recordAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID:    actorID,
		Action:     action,
		Resource:   "registration_request",
		ResourceID: resourceID,
		Meta:       meta,
		Values:     values,
	})
}

func mapApproveError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrInvalidState, "registration request already processed")
	case database.IsUniqueViolation(err, repository.ConstraintUserEmail):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "an account already uses this email")
	case database.IsUniqueViolation(err, repository.ConstraintEmployeeID):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "employee id already assigned, retry the approval")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve registration request")
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status, "profile photo is too large")
	case errors.Is(err, storage.ErrUnsupportedMedia):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "profile photo type is not allowed")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store profile photo")
}

func parseRegistrationQuery(query dto.RegistrationQuery) (models.RegistrationFilter, error) {
	filter := models.RegistrationFilter{
		RequestedBy: strings.TrimSpace(query.RequestedBy),
		LocationID:  strings.TrimSpace(query.LocationID),
		Page:        query.Page,
		PageSize:    query.PageSize,
	}
	if filter.RequestedBy != "" {
		if _, err := uuid.Parse(filter.RequestedBy); err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "requestedById must be a UUID")
		}
	}
	if filter.LocationID != "" {
		if _, err := uuid.Parse(filter.LocationID); err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "locationId must be a UUID")
		}
	}
	if raw := strings.ToUpper(strings.TrimSpace(query.Role)); raw != "" {
		role := models.RequestedRole(raw)
		if !role.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown role filter")
		}
		filter.Role = role
	}
	switch raw := models.RegistrationStatus(strings.ToUpper(strings.TrimSpace(query.Status))); raw {
	case "":
		filter.Status = models.RegistrationPending
	case "ALL":
	case models.RegistrationPending, models.RegistrationApproved, models.RegistrationRejected:
		filter.Status = raw
	default:
		return filter, appErrors.Clone(appErrors.ErrValidation, "status must be PENDING, APPROVED, REJECTED or ALL")
	}
	var err error
	if filter.DateFrom, err = parseOptionalDate(query.DateFrom); err != nil {
		return filter, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be YYYY-MM-DD")
	}
	if filter.DateTo, err = parseOptionalDate(query.DateTo); err != nil {
		return filter, appErrors.Clone(appErrors.ErrValidation, "dateTo must be YYYY-MM-DD")
	}
	if filter.DateTo != nil {
		end := filter.DateTo.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return filter, appErrors.Clone(appErrors.ErrValidation, "dateTo must not be before dateFrom")
	}
	return filter, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func exportRow(req models.RegistrationRequest) []string {
	requestedBy := req.RequestedBy
	if req.RequestedByName != nil {
		requestedBy = *req.RequestedByName
	}
	employeeID := ""
	if req.GeneratedEmployeeID != nil {
		employeeID = *req.GeneratedEmployeeID
	}
	return []string{
		req.FullName,
		req.Email,
		req.Phone,
		string(req.Role),
		string(req.Status),
		requestedBy,
		employeeID,
		req.CreatedAt.Format(dateLayout),
	}
}

func nonNilRoleCounts(in []models.RoleCount) []models.RoleCount {
	if in == nil {
		return []models.RoleCount{}
	}
	return in
}

func nonNilManagerCounts(in []models.ManagerCount) []models.ManagerCount {
	if in == nil {
		return []models.ManagerCount{}
	}
	return in
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}
