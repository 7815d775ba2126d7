package dto

import (
	"io"

	"github.com/noah-isme/guardforce-api/internal/models"
)

// CreateRegistrationRequest is a manager's onboarding submission. It binds
// from JSON or multipart form fields.
type CreateRegistrationRequest struct {
	FullName              string               `json:"fullName" form:"fullName" validate:"required,min=2,max=100"`
	Email                 string               `json:"email" form:"email" validate:"required,email,max=255"`
	Phone                 string               `json:"phone" form:"phone" validate:"required,min=6,max=32"`
	Role                  models.RequestedRole `json:"role" form:"role" validate:"required,oneof=SUPERVISOR HR SECRETARY GENERAL_SUPERVISOR GUARD"`
	LocationID            string               `json:"locationId" form:"locationId" validate:"omitempty,uuid"`
	Department            string               `json:"department" form:"department" validate:"max=100"`
	StartDate             string               `json:"startDate" form:"startDate" validate:"omitempty,datetime=2006-01-02"`
	Gender                string               `json:"gender" form:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	DateOfBirth           string               `json:"dateOfBirth" form:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Address               string               `json:"address" form:"address" validate:"max=500"`
	NationalID            string               `json:"nationalId" form:"nationalId" validate:"max=64"`
	EmergencyContactName  string               `json:"emergencyContactName" form:"emergencyContactName" validate:"max=150"`
	EmergencyContactPhone string               `json:"emergencyContactPhone" form:"emergencyContactPhone" validate:"max=32"`
}

// Upload is a file received alongside a form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// RejectRegistrationRequest carries the optional rejection reason.
type RejectRegistrationRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// RegistrationQuery mirrors supported listing filters.
type RegistrationQuery struct {
	Role        string `form:"role"`
	Status      string `form:"status"`
	RequestedBy string `form:"requestedById"`
	LocationID  string `form:"locationId"`
	DateFrom    string `form:"dateFrom"`
	DateTo      string `form:"dateTo"`
	Page        int    `form:"page"`
	PageSize    int    `form:"pageSize"`
}

// RegistrationList is the pending-review listing.
type RegistrationList struct {
	Requests      []models.RegistrationRequest `json:"requests"`
	TotalCount    int                          `json:"totalCount"`
	RoleCounts    []models.RoleCount           `json:"roleCounts"`
	ManagerCounts []models.ManagerCount        `json:"managerCounts"`
}

// RegistrationDetail is a single request with a short-lived photo link.
type RegistrationDetail struct {
	models.RegistrationRequest
	ProfilePhotoURL string `json:"profilePhotoUrl,omitempty"`
}
