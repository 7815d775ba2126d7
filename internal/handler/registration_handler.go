package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/guardforce-api/internal/dto"
	"github.com/noah-isme/guardforce-api/internal/middleware"
	"github.com/noah-isme/guardforce-api/internal/models"
	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
	"github.com/noah-isme/guardforce-api/pkg/response"
)

const profilePhotoField = "profilePhoto"

type registrationService interface {
	Create(ctx context.Context, req dto.CreateRegistrationRequest, photo *dto.Upload, requesterID string, meta models.RequestMeta) (*models.RegistrationRequest, error)
	List(ctx context.Context, query dto.RegistrationQuery) (*dto.RegistrationList, *models.Pagination, error)
	Get(ctx context.Context, id string, includeSecret bool) (*dto.RegistrationDetail, error)
	Stats(ctx context.Context) (*models.RegistrationStats, bool, error)
	Managers(ctx context.Context) ([]models.ManagerCount, error)
	Export(ctx context.Context, query dto.RegistrationQuery, format string) ([]byte, string, string, error)
	Approve(ctx context.Context, id, reviewerID string, meta models.RequestMeta) (*models.ApprovalResult, error)
	Reject(ctx context.Context, id, reviewerID string, body dto.RejectRegistrationRequest, meta models.RequestMeta) (*models.RegistrationRequest, error)
}

// RegistrationHandler exposes the staff onboarding workflow.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Create godoc
// @Summary Submit registration request
// @Description Managers submit a new staff member for director approval. Accepts JSON or multipart/form-data with an optional profilePhoto file.
// @Tags Registration
// @Accept json
// @Accept mpfd
// @Produce json
// @Param payload body dto.CreateRegistrationRequest true "Registration payload"
// @Param profilePhoto formData file false "Profile photo"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Security BearerAuth
// @Router /registration-requests [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req dto.CreateRegistrationRequest
	var photo *dto.Upload

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
			return
		}
		header, err := c.FormFile(profilePhotoField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile photo"))
			return
		default:
			file, err := header.Open()
			if err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile photo"))
				return
			}
			defer file.Close()
			photo = &dto.Upload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			}
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	created, err := h.service.Create(c.Request.Context(), req, photo, actorID(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, created)
}

// Pending godoc
// @Summary List registration requests
// @Description Lists requests (PENDING by default, status=ALL for every state) with pending role and manager counts
// @Tags Registration
// @Produce json
// @Param role query string false "Requested role"
// @Param status query string false "PENDING, APPROVED, REJECTED or ALL"
// @Param requestedById query string false "Submitting manager"
// @Param locationId query string false "Location"
// @Param dateFrom query string false "Created on or after (YYYY-MM-DD)"
// @Param dateTo query string false "Created on or before (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /registration-requests/pending [get]
func (h *RegistrationHandler) Pending(c *gin.Context) {
	var query dto.RegistrationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	list, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, list, pagination)
}

// Get godoc
// @Summary Get registration request
// @Description Returns one request. Directors also see the generated temporary password.
// @Tags Registration
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /registration-requests/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	includeSecret := false
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleDirector {
		includeSecret = true
	}

	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), includeSecret)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Approve godoc
// @Summary Approve registration request
// @Description Provisions the account and role profile, issues credentials and emails them
// @Tags Registration
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /registration-requests/{id}/approve [post]
func (h *RegistrationHandler) Approve(c *gin.Context) {
	result, err := h.service.Approve(c.Request.Context(), c.Param("id"), actorID(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject registration request
// @Tags Registration
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RejectRegistrationRequest false "Optional reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /registration-requests/{id}/reject [post]
func (h *RegistrationHandler) Reject(c *gin.Context) {
	var body dto.RejectRegistrationRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reject payload"))
		return
	}

	rejected, err := h.service.Reject(c.Request.Context(), c.Param("id"), actorID(c), body, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rejected, nil)
}

// Stats godoc
// @Summary Registration statistics
// @Description Pending total, approvals and rejections since local midnight, approvals in the last 7 days
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /registration-requests/stats [get]
func (h *RegistrationHandler) Stats(c *gin.Context) {
	stats, cacheHit, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)

	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// Managers godoc
// @Summary Managers with pending requests
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /registration-requests/managers [get]
func (h *RegistrationHandler) Managers(c *gin.Context) {
	managers, err := h.service.Managers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, managers, nil)
}

// Export godoc
// @Summary Export registration requests
// @Description Renders the filtered request list as CSV or PDF
// @Tags Registration
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param status query string false "PENDING, APPROVED, REJECTED or ALL"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /registration-requests/export [get]
func (h *RegistrationHandler) Export(c *gin.Context) {
	var query dto.RegistrationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	payload, filename, contentType, err := h.service.Export(c.Request.Context(), query, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.File(c, filename, contentType, payload)
}
