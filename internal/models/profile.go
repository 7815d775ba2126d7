package models

import "time"

// ProfileKind names the role-specific profile attached to a user.
type ProfileKind string

const (
	ProfileSupervisor ProfileKind = "SUPERVISOR"
	ProfileSecretary  ProfileKind = "SECRETARY"
	ProfileOperator   ProfileKind = "OPERATOR"
	ProfileAdmin      ProfileKind = "ADMIN"
)

// Supervisor is the profile of a supervisor or general supervisor.
type Supervisor struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"userId"`
	SupervisorType string    `db:"supervisor_type" json:"supervisorType"`
	LocationID     *string   `db:"location_id" json:"locationId,omitempty"`
	Salary         float64   `db:"salary" json:"salary"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Secretary is the profile for secretaries and HR staff.
type Secretary struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	LocationID *string   `db:"location_id" json:"locationId,omitempty"`
	Department string    `db:"department" json:"department"`
	Salary     float64   `db:"salary" json:"salary"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Operator is a guard profile. SupervisorID is mandatory.
type Operator struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	SupervisorID string    `db:"supervisor_id" json:"supervisorId"`
	LocationID   *string   `db:"location_id" json:"locationId,omitempty"`
	BeatID       *string   `db:"beat_id" json:"beatId,omitempty"`
	Salary       float64   `db:"salary" json:"salary"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Admin is the profile created by direct admin registration.
type Admin struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	StaffID    string    `db:"staff_id" json:"staffId"`
	LocationID *string   `db:"location_id" json:"locationId,omitempty"`
	Position   string    `db:"position" json:"position,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// AdminView joins an admin profile with its account.
type AdminView struct {
	Admin
	Email    string   `db:"email" json:"email"`
	FullName string   `db:"full_name" json:"fullName"`
	Phone    string   `db:"phone" json:"phone"`
	Role     UserRole `db:"role" json:"role"`
	Status   string   `db:"status" json:"status"`
}

// Provisioning is everything approval writes in one transaction.
type Provisioning struct {
	User       User
	Supervisor *Supervisor
	Secretary  *Secretary
	Operator   *Operator
}
