package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RequestedRole is the public-facing role a manager asks for on a registration request.
type RequestedRole string

const (
	RequestedSupervisor        RequestedRole = "SUPERVISOR"
	RequestedHR                RequestedRole = "HR"
	RequestedSecretary         RequestedRole = "SECRETARY"
	RequestedGeneralSupervisor RequestedRole = "GENERAL_SUPERVISOR"
	RequestedGuard             RequestedRole = "GUARD"
)

// RequestedRoles lists every role accepted on a registration request.
var RequestedRoles = []RequestedRole{
	RequestedSupervisor,
	RequestedHR,
	RequestedSecretary,
	RequestedGeneralSupervisor,
	RequestedGuard,
}

var employeeIDPrefixes = map[RequestedRole]string{
	RequestedSupervisor:        "SUP",
	RequestedHR:                "HR",
	RequestedSecretary:         "SEC",
	RequestedGeneralSupervisor: "GSUP",
	RequestedGuard:             "GRD",
}

var accountRoles = map[RequestedRole]UserRole{
	RequestedSupervisor:        RoleSupervisor,
	RequestedHR:                RoleSecretary,
	RequestedSecretary:         RoleSecretary,
	RequestedGeneralSupervisor: RoleGeneralSupervisor,
	RequestedGuard:             RoleOperator,
}

// Valid reports whether r is a known requested role.
func (r RequestedRole) Valid() bool {
	_, ok := accountRoles[r]
	return ok
}

// EmployeeIDPrefix returns the employee ID prefix for the role.
func (r RequestedRole) EmployeeIDPrefix() string {
	return employeeIDPrefixes[r]
}

// AccountRole maps the requested role onto the account role provisioned on approval.
func (r RequestedRole) AccountRole() UserRole {
	return accountRoles[r]
}

// Profile returns which role-specific profile approval creates for r.
func (r RequestedRole) Profile() ProfileKind {
	switch r {
	case RequestedSupervisor, RequestedGeneralSupervisor:
		return ProfileSupervisor
	case RequestedSecretary, RequestedHR:
		return ProfileSecretary
	case RequestedGuard:
		return ProfileOperator
	}
	return ""
}

// RegistrationStatus is the state of a registration request.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationRejected RegistrationStatus = "REJECTED"
)

// ErrIllegalTransition is returned by Transition for any move out of a terminal state.
var ErrIllegalTransition = errors.New("illegal registration status transition")

// Terminal reports whether no further transition is possible.
func (s RegistrationStatus) Terminal() bool {
	return s == RegistrationApproved || s == RegistrationRejected
}

// Transition validates moving from s to next and returns next.
// Only PENDING -> APPROVED and PENDING -> REJECTED are legal.
func (s RegistrationStatus) Transition(next RegistrationStatus) (RegistrationStatus, error) {
	if s == RegistrationPending && next.Terminal() {
		return next, nil
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s, next)
}

// RegistrationRequest represents a personnel onboarding submission.
type RegistrationRequest struct {
	ID                    string             `db:"id" json:"id"`
	FullName              string             `db:"full_name" json:"fullName"`
	Email                 string             `db:"email" json:"email"`
	Phone                 string             `db:"phone" json:"phone"`
	Role                  RequestedRole      `db:"role" json:"role"`
	LocationID            *string            `db:"location_id" json:"locationId,omitempty"`
	Department            string             `db:"department" json:"department,omitempty"`
	StartDate             *time.Time         `db:"start_date" json:"startDate,omitempty"`
	ProfilePhoto          string             `db:"profile_photo" json:"profilePhoto,omitempty"`
	Gender                string             `db:"gender" json:"gender,omitempty"`
	DateOfBirth           *time.Time         `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Address               string             `db:"address" json:"address,omitempty"`
	NationalID            string             `db:"national_id" json:"nationalId,omitempty"`
	EmergencyContactName  string             `db:"emergency_contact_name" json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string             `db:"emergency_contact_phone" json:"emergencyContactPhone,omitempty"`
	Status                RegistrationStatus `db:"status" json:"status"`
	RequestedBy           string             `db:"requested_by" json:"requestedById"`
	RequestedByName       *string            `db:"requested_by_name" json:"requestedByName,omitempty"`
	ReviewedBy            *string            `db:"reviewed_by" json:"reviewedById,omitempty"`
	ReviewedAt            *time.Time         `db:"reviewed_at" json:"reviewedAt,omitempty"`
	RejectionReason       *string            `db:"rejection_reason" json:"rejectionReason,omitempty"`
	GeneratedUserID       *string            `db:"generated_user_id" json:"generatedUserId,omitempty"`
	GeneratedEmployeeID   *string            `db:"generated_employee_id" json:"generatedEmployeeId,omitempty"`
	GeneratedPassword     *string            `db:"generated_password" json:"generatedPassword,omitempty"`
	CreatedAt             time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time          `db:"updated_at" json:"updatedAt"`
}

// Redacted returns a copy without the stored temporary password.
func (r RegistrationRequest) Redacted() RegistrationRequest {
	r.GeneratedPassword = nil
	return r
}

// SplitFullName returns first and last name. A single token is used for both.
func SplitFullName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegistrationFilter narrows the registration request list.
type RegistrationFilter struct {
	Role        RequestedRole
	Status      RegistrationStatus
	RequestedBy string
	LocationID  string
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
	PageSize    int
}

// RoleCount is the number of pending requests for one requested role.
type RoleCount struct {
	Role  RequestedRole `db:"role" json:"role"`
	Count int           `db:"count" json:"count"`
}

// ManagerCount is the number of pending requests submitted by one manager.
type ManagerCount struct {
	ManagerID string `db:"manager_id" json:"managerId"`
	FullName  string `db:"full_name" json:"fullName"`
	Email     string `db:"email" json:"email"`
	Count     int    `db:"count" json:"count"`
}

// RegistrationStats summarises review throughput.
type RegistrationStats struct {
	Pending          int `db:"pending" json:"pending"`
	ApprovedToday    int `db:"approved_today" json:"approvedToday"`
	RejectedToday    int `db:"rejected_today" json:"rejectedToday"`
	ApprovedThisWeek int `db:"approved_this_week" json:"approvedThisWeek"`
}

// StatsWindow carries the boundaries used to compute RegistrationStats.
type StatsWindow struct {
	DayStart  time.Time
	WeekStart time.Time
}

// NewStatsWindow returns local midnight and a rolling seven day window ending at now.
func NewStatsWindow(now time.Time) StatsWindow {
	y, m, d := now.Date()
	return StatsWindow{
		DayStart:  time.Date(y, m, d, 0, 0, 0, 0, now.Location()),
		WeekStart: now.Add(-7 * 24 * time.Hour),
	}
}

// Credentials is the username/password pair issued on approval.
type Credentials struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	EmployeeID string `json:"employeeId"`
}

// ApprovalResult is returned from a successful approval.
type ApprovalResult struct {
	User        UserInfo            `json:"user"`
	Credentials Credentials         `json:"credentials"`
	EmailSent   bool                `json:"emailSent"`
	Request     RegistrationRequest `json:"request"`
}
