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

type adminService interface {
	Register(ctx context.Context, req dto.CreateAdminRequest, actorID string, meta models.RequestMeta) (*dto.CreatedAdmin, error)
	Get(ctx context.Context, id string) (*models.AdminView, error)
	List(ctx context.Context) ([]models.AdminView, error)
}

// AdminHandler registers back-office staff directly.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(svc adminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// Register godoc
// @Summary Register admin
// @Description Creates an active MANAGER, DIRECTOR or ADMIN account with a staff ID
// @Tags Admins
// @Accept json
// @Produce json
// @Param payload body dto.CreateAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /admins [post]
func (h *AdminHandler) Register(c *gin.Context) {
	var req dto.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admin payload"))
		return
	}

	created, err := h.service.Register(c.Request.Context(), req, actorID(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, created)
}

// List godoc
// @Summary List admins
// @Tags Admins
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	admins, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, admins, nil)
}

// Get godoc
// @Summary Get admin
// @Tags Admins
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admins/{id} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	admin, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, admin, nil)
}
