package dto

import "github.com/noah-isme/guardforce-api/internal/models"

// CreateAdminRequest registers a back-office account directly.
type CreateAdminRequest struct {
	FullName   string          `json:"fullName" validate:"required,min=2,max=100"`
	Email      string          `json:"email" validate:"required,email,max=255"`
	Phone      string          `json:"phone" validate:"omitempty,min=6,max=32"`
	Password   string          `json:"password" validate:"required,min=8,max=72"`
	Role       models.UserRole `json:"role" validate:"required,oneof=MANAGER DIRECTOR ADMIN"`
	LocationID string          `json:"locationId" validate:"required,uuid"`
	Position   string          `json:"position" validate:"max=100"`
}

// CreatedAdmin is returned after direct registration.
type CreatedAdmin struct {
	User    models.UserInfo `json:"user"`
	StaffID string          `json:"staffId"`
	AdminID string          `json:"adminId"`
}
