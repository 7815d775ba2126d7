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
	"github.com/noah-isme/guardforce-api/pkg/codegen"
	"github.com/noah-isme/guardforce-api/pkg/database"
	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
)

type beatStore interface {
	Create(ctx context.Context, beat *models.Beat) error
	GetByID(ctx context.Context, id string) (*models.Beat, error)
	List(ctx context.Context, filter models.BeatFilter) ([]models.Beat, int, error)
	NameExists(ctx context.Context, locationID, name string) (bool, error)
}

// BeatService manages security posts. Bit routes share this implementation.
type BeatService struct {
	repo      beatStore
	locations locationLookup
	codes     codeGenerator
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBeatService constructs the service.
func NewBeatService(repo beatStore, locations locationLookup, codes codeGenerator, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *BeatService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BeatService{repo: repo, locations: locations, codes: codes, audit: audit, validator: validate, logger: logger}
}

// Create registers a beat and assigns its BEAT-PFX-NNN code.
func (s *BeatService) Create(ctx context.Context, req dto.CreateBeatRequest, actorID string, meta models.RequestMeta) (*models.Beat, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid beat payload")
	}
	loc, err := s.locations.GetByID(ctx, req.LocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	exists, err := s.repo.NameExists(ctx, loc.ID, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check beat name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "beat name already exists at this location")
	}

	code, err := s.codes.Generate(ctx, loc.ID, codegen.DerivePrefix(loc.Name))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate beat code")
	}
	guards := req.GuardsRequired
	if guards <= 0 {
		guards = 1
	}
	beat := &models.Beat{
		LocationID:     loc.ID,
		LocationName:   loc.Name,
		Name:           req.Name,
		Code:           code,
		Description:    strings.TrimSpace(req.Description),
		GuardsRequired: guards,
		Status:         models.BeatActive,
	}
	if actorID != "" {
		beat.CreatedBy = &actorID
	}
	if err := s.repo.Create(ctx, beat); err != nil {
		switch {
		case database.IsUniqueViolation(err, repository.ConstraintBeatLocationName):
			return nil, appErrors.Clone(appErrors.ErrConflict, "beat name already exists at this location")
		case database.IsUniqueViolation(err, repository.ConstraintBeatCode):
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "beat code already assigned, retry the request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create beat")
	}

	recordAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID:    actorID,
		Action:     models.AuditActionBeatCreate,
		Resource:   "beat",
		ResourceID: beat.ID,
		Meta:       meta,
		Values:     map[string]interface{}{"code": beat.Code, "locationId": beat.LocationID},
	})
	return beat, nil
}

// Get returns a beat by ID.
func (s *BeatService) Get(ctx context.Context, id string) (*models.Beat, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "beat not found")
	}
	beat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "beat not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load beat")
	}
	return beat, nil
}

// List returns beats filtered by location and status.
func (s *BeatService) List(ctx context.Context, query dto.BeatQuery) ([]models.Beat, *models.Pagination, error) {
	filter := models.BeatFilter{
		LocationID: strings.TrimSpace(query.LocationID),
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if filter.LocationID != "" {
		if _, err := uuid.Parse(filter.LocationID); err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "locationId must be a UUID")
		}
	}
	switch status := models.BeatStatus(strings.ToUpper(strings.TrimSpace(query.Status))); status {
	case "":
	case models.BeatActive, models.BeatInactive:
		filter.Status = status
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "status must be ACTIVE or INACTIVE")
	}

	beats, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list beats")
	}
	if beats == nil {
		beats = []models.Beat{}
	}
	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return beats, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
