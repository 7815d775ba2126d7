package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/guardforce-api/internal/dto"
	"github.com/noah-isme/guardforce-api/internal/models"
	"github.com/noah-isme/guardforce-api/internal/repository"
	"github.com/noah-isme/guardforce-api/pkg/codegen"
	"github.com/noah-isme/guardforce-api/pkg/database"
	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
)

type adminStore interface {
	Create(ctx context.Context, user *models.User, admin *models.Admin) error
	GetByID(ctx context.Context, id string) (*models.AdminView, error)
	List(ctx context.Context) ([]models.AdminView, error)
}

type emailLookup interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

// AdminService registers back-office accounts without the approval workflow.
type AdminService struct {
	repo      adminStore
	accounts  emailLookup
	locations locationLookup
	staffIDs  codeGenerator
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	hashCost  int
}

// NewAdminService constructs the service.
func NewAdminService(repo adminStore, accounts emailLookup, locations locationLookup, staffIDs codeGenerator, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		repo:      repo,
		accounts:  accounts,
		locations: locations,
		staffIDs:  staffIDs,
		audit:     audit,
		validator: validate,
		logger:    logger,
		hashCost:  bcrypt.DefaultCost,
	}
}

// Register creates an ACTIVE account plus admin profile with an ADM-PFX-NNN staff ID.
func (s *AdminService) Register(ctx context.Context, req dto.CreateAdminRequest, actorID string, meta models.RequestMeta) (*dto.CreatedAdmin, error) {
	req.Email = models.NormalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Role = models.UserRole(strings.ToUpper(strings.TrimSpace(string(req.Role))))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}

	exists, err := s.accounts.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	loc, err := s.locations.GetByID(ctx, req.LocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}

	staffID, err := s.staffIDs.Generate(ctx, loc.ID, codegen.DerivePrefix(loc.Name))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate staff id")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	first, last := models.SplitFullName(req.FullName)
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		FirstName:    first,
		LastName:     last,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         req.Role,
		Status:       models.UserStatusActive,
	}
	admin := &models.Admin{
		StaffID:    staffID,
		LocationID: &loc.ID,
		Position:   strings.TrimSpace(req.Position),
	}
	if err := s.repo.Create(ctx, user, admin); err != nil {
		switch {
		case database.IsUniqueViolation(err, repository.ConstraintUserEmail):
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		case database.IsUniqueViolation(err, repository.ConstraintStaffID):
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "staff id already assigned, retry the request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register admin")
	}

	recordAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionAdminCreate,
		Resource:   "admin",
		ResourceID: admin.ID,
		Meta:       meta,
		Values:     map[string]interface{}{"userId": user.ID, "staffId": staffID, "role": user.Role},
	})
	return &dto.CreatedAdmin{User: user.Info(), StaffID: staffID, AdminID: admin.ID}, nil
}

// Get returns an admin by ID.
func (s *AdminService) Get(ctx context.Context, id string) (*models.AdminView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
	}
	view, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	return view, nil
}

// List returns every admin.
func (s *AdminService) List(ctx context.Context) ([]models.AdminView, error) {
	views, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admins")
	}
	if views == nil {
		views = []models.AdminView{}
	}
	return views, nil
}
