package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/guardforce-api/internal/dto"
	"github.com/noah-isme/guardforce-api/internal/models"
	"github.com/noah-isme/guardforce-api/internal/repository"
	"github.com/noah-isme/guardforce-api/pkg/database"
	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
)

type locationStore interface {
	Create(ctx context.Context, loc *models.Location) error
	GetByID(ctx context.Context, id string) (*models.Location, error)
	NameExists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]models.Location, error)
}

// LocationService manages client sites.
type LocationService struct {
	repo      locationStore
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLocationService constructs the service.
func NewLocationService(repo locationStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *LocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Create registers a location with a unique name.
func (s *LocationService) Create(ctx context.Context, req dto.CreateLocationRequest, actorID string, meta models.RequestMeta) (*models.Location, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}
	exists, err := s.repo.NameExists(ctx, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check location name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "location name already exists")
	}

	loc := &models.Location{
		Name:    req.Name,
		Address: strings.TrimSpace(req.Address),
		City:    strings.TrimSpace(req.City),
	}
	if err := s.repo.Create(ctx, loc); err != nil {
		if database.IsUniqueViolation(err, repository.ConstraintLocationName) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "location name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create location")
	}

	recordAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionLocationCreate,
		Resource:   "location",
		ResourceID: loc.ID,
		Meta:       meta,
		Values:     map[string]interface{}{"name": loc.Name},
	})
	return loc, nil
}

// Get returns a location by ID.
func (s *LocationService) Get(ctx context.Context, id string) (*models.Location, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
	}
	loc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	return loc, nil
}

// List returns all locations.
func (s *LocationService) List(ctx context.Context) ([]models.Location, error) {
	locs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	if locs == nil {
		locs = []models.Location{}
	}
	return locs, nil
}
