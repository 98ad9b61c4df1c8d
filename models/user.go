package models

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
)

// CanManage reports whether the role may edit templates and schedules.
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleManager
}

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID                string    `json:"id"`
	OrganizationID    string    `json:"organization_id"`
	GoogleID          string    `json:"google_id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Picture           string    `json:"picture"`
	Role              Role      `json:"role"`
	XP                int       `json:"xp"`
	CurrentStreak     int       `json:"current_streak"`
	LongestStreak     int       `json:"longest_streak"`
	LastChecklistDate string    `json:"last_checklist_date,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	LastLoginAt       time.Time `json:"last_login_at"`
}

type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Picture        string    `json:"picture"`
	Role           Role      `json:"role"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
	LastUsedAt     time.Time `json:"last_used_at"`
}

type LoginRequest struct {
	Code    string `json:"code"`
	IDToken string `json:"id_token"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}
