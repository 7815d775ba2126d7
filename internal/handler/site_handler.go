package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/guardforce-api/internal/dto"
	"github.com/noah-isme/guardforce-api/internal/models"
	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
	"github.com/noah-isme/guardforce-api/pkg/response"
)

type locationService interface {
	Create(ctx context.Context, req dto.CreateLocationRequest, actorID string, meta models.RequestMeta) (*models.Location, error)
	Get(ctx context.Context, id string) (*models.Location, error)
	List(ctx context.Context) ([]models.Location, error)
}

type beatService interface {
	Create(ctx context.Context, req dto.CreateBeatRequest, actorID string, meta models.RequestMeta) (*models.Beat, error)
	Get(ctx context.Context, id string) (*models.Beat, error)
	List(ctx context.Context, query dto.BeatQuery) ([]models.Beat, *models.Pagination, error)
}

// LocationHandler manages client sites.
type LocationHandler struct {
	service locationService
}

// NewLocationHandler constructs the handler.
func NewLocationHandler(svc locationService) *LocationHandler {
	return &LocationHandler{service: svc}
}

// Create godoc
// @Summary Create location
// @Tags Locations
// @Accept json
// @Produce json
// @Param payload body dto.CreateLocationRequest true "Location payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /locations [post]
func (h *LocationHandler) Create(c *gin.Context) {
	var req dto.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid location payload"))
		return
	}

	loc, err := h.service.Create(c.Request.Context(), req, actorID(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, loc)
}

// List godoc
// @Summary List locations
// @Tags Locations
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /locations [get]
func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, locations, nil)
}

// Get godoc
// @Summary Get location
// @Tags Locations
// @Produce json
// @Param id path string true "Location ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /locations/{id} [get]
func (h *LocationHandler) Get(c *gin.Context) {
	loc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, loc, nil)
}

// BeatHandler manages security posts. The same handler serves the /bits aliases.
type BeatHandler struct {
	service beatService
}

// NewBeatHandler constructs the handler.
func NewBeatHandler(svc beatService) *BeatHandler {
	return &BeatHandler{service: svc}
}

// Create godoc
// @Summary Create beat
// @Description Registers a post at a location and assigns its BEAT code
// @Tags Beats
// @Accept json
// @Produce json
// @Param payload body dto.CreateBeatRequest true "Beat payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /beats [post]
func (h *BeatHandler) Create(c *gin.Context) {
	var req dto.CreateBeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid beat payload"))
		return
	}

	beat, err := h.service.Create(c.Request.Context(), req, actorID(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, beat)
}

// List godoc
// @Summary List beats
// @Tags Beats
// @Produce json
// @Param locationId query string false "Location"
// @Param status query string false "ACTIVE or INACTIVE"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /beats [get]
func (h *BeatHandler) List(c *gin.Context) {
	var query dto.BeatQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	beats, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, beats, pagination)
}

// Get godoc
// @Summary Get beat
// @Tags Beats
// @Produce json
// @Param id path string true "Beat ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /beats/{id} [get]
func (h *BeatHandler) Get(c *gin.Context) {
	beat, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, beat, nil)
}
