package models

import "time"

// UserRole represents the account roles enforced by RBAC.
type UserRole string

const (
	RoleDirector          UserRole = "DIRECTOR"
	RoleManager           UserRole = "MANAGER"
	RoleAdmin             UserRole = "ADMIN"
	RoleGeneralSupervisor UserRole = "GENERAL_SUPERVISOR"
	RoleSupervisor        UserRole = "SUPERVISOR"
	RoleSecretary         UserRole = "SECRETARY"
	RoleOperator          UserRole = "OPERATOR"
)

// Valid reports whether r is a known account role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleDirector, RoleManager, RoleAdmin, RoleGeneralSupervisor, RoleSupervisor, RoleSecretary, RoleOperator:
		return true
	}
	return false
}

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInactive  UserStatus = "INACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User represents an application account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"fullName"`
	FirstName    string     `db:"first_name" json:"firstName"`
	LastName     string     `db:"last_name" json:"lastName"`
	Phone        string     `db:"phone" json:"phone"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	EmployeeID   *string    `db:"employee_id" json:"employeeId,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Active reports whether the account may sign in.
func (u *User) Active() bool {
	return u != nil && u.Status == UserStatusActive
}

// Info returns the public projection of the user.
func (u *User) Info() UserInfo {
	info := UserInfo{ID: u.ID, Email: u.Email, FullName: u.FullName, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role, Status: u.Status}
	if u.EmployeeID != nil {
		info.EmployeeID = *u.EmployeeID
	}
	return info
}

// UserInfo describes a user in responses.
type UserInfo struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"fullName"`
	FirstName  string     `json:"firstName,omitempty"`
	LastName   string     `json:"lastName,omitempty"`
	Role       UserRole   `json:"role"`
	Status     UserStatus `json:"status"`
	EmployeeID string     `json:"employeeId,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// UserFilter represents filters for listing users.
type UserFilter struct {
	Role      *UserRole
	Status    *UserStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
