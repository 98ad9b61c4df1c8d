package services

import (
	"checkquest/database"
	"checkquest/models"
	"time"
)

// TemplateRepository defines the interface for template data access
type TemplateRepository interface {
	CreateTemplate(t *models.ChecklistTemplate) error
	GetTemplate(templateID string) (*models.ChecklistTemplate, error)
	GetTemplateByName(organizationID, name string) (*models.ChecklistTemplate, error)
	ListTemplates(organizationID string, activeOnly bool) ([]models.ChecklistTemplate, error)
	UpdateTemplate(t *models.ChecklistTemplate) error
	DeleteTemplate(templateID string) error
}

// EntryRepository defines the interface for checklist execution data access
type EntryRepository interface {
	GetTemplate(templateID string) (*models.ChecklistTemplate, error)
	GetUser(userID string) (*models.User, error)
	GetUserStats(userID string) (models.UserStats, error)
	ListUserBadges(userID string) ([]models.UserBadge, error)
	CompleteEntry(c *database.EntryCompletion) error
	GetEntry(entryID string) (*models.ChecklistEntry, error)
	ListEntries(f models.EntryFilter) ([]models.ChecklistEntry, error)
	GetProcessedMutation(userID, mutationID string) (string, bool, error)
}

// ActionPlanRepository defines the interface for action plan data access
type ActionPlanRepository interface {
	GetActionPlan(planID string) (*models.ActionPlan, error)
	ListActionPlans(f models.ActionPlanFilter) ([]models.ActionPlan, error)
	UpdateActionPlan(u *database.ActionPlanUpdate) error
	GetActionPlanTemplateName(planID string) (string, error)
	GetUser(userID string) (*models.User, error)
	GetUserStats(userID string) (models.UserStats, error)
	ListUserBadges(userID string) ([]models.UserBadge, error)
	AwardBadges(badges []models.UserBadge, logs []models.GamificationLog) error
}

// RankingRepository defines the interface for leaderboard and progress queries
type RankingRepository interface {
	GetLeaderboard(organizationID string, from *time.Time, limit int) ([]models.RankingRow, error)
	GetDashboardStats(organizationID string, from, at time.Time) (*models.DashboardStats, error)
	GetUser(userID string) (*models.User, error)
	ListUserBadges(userID string) ([]models.UserBadge, error)
	ListGamificationLogs(userID string, limit int) ([]models.GamificationLog, error)
}

// ScheduleRepository defines the interface for schedule data access
type ScheduleRepository interface {
	CreateSchedule(s *models.Schedule) error
	GetSchedule(scheduleID string) (*models.Schedule, error)
	ListSchedules(organizationID string) ([]models.Schedule, error)
	UpdateSchedule(s *models.Schedule) error
	DeleteSchedule(scheduleID string) error
	GetTemplate(templateID string) (*models.ChecklistTemplate, error)
	GetUser(userID string) (*models.User, error)
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	ListNotifications(userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkNotificationRead(userID, notificationID string) error
}

// SyncRepository defines the interface for outbox inspection and replay bookkeeping
type SyncRepository interface {
	GetProcessedMutation(userID, mutationID string) (string, bool, error)
	GetSyncStatus(organizationID string, limit int) (*models.SyncStatusSummary, error)
	RetryEvent(organizationID, eventID string) error
}

// AuthRepository defines the interface for auth-related data access
type AuthRepository interface {
	GetOrganizationBySlug(slug string) (*models.Organization, error)
	CreateOrganization(org *models.Organization) error
	GetUserByGoogleID(googleID string) (*models.User, error)
	CountUsers(organizationID string) (int, error)
	UpsertUser(user *models.User) error
	ListUsers(organizationID string) ([]models.User, error)
	GetUser(userID string) (*models.User, error)
	UpdateUserRole(userID string, role models.Role) error
}

// SessionStore defines the interface for session management
type SessionStore interface {
	Create(user *models.User) (*models.Session, error)
	Get(sessionID string) (*models.Session, error)
	Delete(sessionID string) error
}

// EventRouter resolves which mirror targets receive an event
type EventRouter interface {
	Targets(event models.EventType) []string
}

// SyncWorker defines the interface for background mirror delivery
type SyncWorker interface {
	DispatchImmediate(eventIDs []string)
}

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID         string
	OrganizationID string
	Role           models.Role
}
