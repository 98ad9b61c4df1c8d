package services

import (
	"checkquest/database"
	"checkquest/models"
	"time"

	"github.com/stretchr/testify/mock"
)

// ==================== MOCKS ====================

// MockRepository is a mock implementation of every repository interface
type MockRepository struct {
	mock.Mock
}

// Ensure MockRepository implements the repository interfaces
var (
	_ TemplateRepository     = (*MockRepository)(nil)
	_ EntryRepository        = (*MockRepository)(nil)
	_ ActionPlanRepository   = (*MockRepository)(nil)
	_ RankingRepository      = (*MockRepository)(nil)
	_ ScheduleRepository     = (*MockRepository)(nil)
	_ NotificationRepository = (*MockRepository)(nil)
	_ SyncRepository         = (*MockRepository)(nil)
	_ AuthRepository         = (*MockRepository)(nil)
	_ SeedRepository         = (*MockRepository)(nil)
)

func (m *MockRepository) CreateTemplate(t *models.ChecklistTemplate) error {
	return m.Called(t).Error(0)
}

func (m *MockRepository) GetTemplate(templateID string) (*models.ChecklistTemplate, error) {
	args := m.Called(templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChecklistTemplate), args.Error(1)
}

func (m *MockRepository) GetTemplateByName(organizationID, name string) (*models.ChecklistTemplate, error) {
	args := m.Called(organizationID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChecklistTemplate), args.Error(1)
}

func (m *MockRepository) ListTemplates(organizationID string, activeOnly bool) ([]models.ChecklistTemplate, error) {
	args := m.Called(organizationID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChecklistTemplate), args.Error(1)
}

func (m *MockRepository) UpdateTemplate(t *models.ChecklistTemplate) error {
	return m.Called(t).Error(0)
}

func (m *MockRepository) DeleteTemplate(templateID string) error {
	return m.Called(templateID).Error(0)
}

func (m *MockRepository) GetUser(userID string) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) GetUserStats(userID string) (models.UserStats, error) {
	args := m.Called(userID)
	return args.Get(0).(models.UserStats), args.Error(1)
}

func (m *MockRepository) ListUserBadges(userID string) ([]models.UserBadge, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserBadge), args.Error(1)
}

func (m *MockRepository) CompleteEntry(c *database.EntryCompletion) error {
	return m.Called(c).Error(0)
}

func (m *MockRepository) GetEntry(entryID string) (*models.ChecklistEntry, error) {
	args := m.Called(entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChecklistEntry), args.Error(1)
}

func (m *MockRepository) ListEntries(f models.EntryFilter) ([]models.ChecklistEntry, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChecklistEntry), args.Error(1)
}

func (m *MockRepository) GetProcessedMutation(userID, mutationID string) (string, bool, error) {
	args := m.Called(userID, mutationID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockRepository) GetActionPlan(planID string) (*models.ActionPlan, error) {
	args := m.Called(planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActionPlan), args.Error(1)
}

func (m *MockRepository) ListActionPlans(f models.ActionPlanFilter) ([]models.ActionPlan, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActionPlan), args.Error(1)
}

func (m *MockRepository) UpdateActionPlan(u *database.ActionPlanUpdate) error {
	return m.Called(u).Error(0)
}

func (m *MockRepository) GetActionPlanTemplateName(planID string) (string, error) {
	args := m.Called(planID)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) AwardBadges(badges []models.UserBadge, logs []models.GamificationLog) error {
	return m.Called(badges, logs).Error(0)
}

func (m *MockRepository) GetLeaderboard(organizationID string, from *time.Time, limit int) ([]models.RankingRow, error) {
	args := m.Called(organizationID, from, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RankingRow), args.Error(1)
}

func (m *MockRepository) GetDashboardStats(organizationID string, from, at time.Time) (*models.DashboardStats, error) {
	args := m.Called(organizationID, from, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *MockRepository) ListGamificationLogs(userID string, limit int) ([]models.GamificationLog, error) {
	args := m.Called(userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GamificationLog), args.Error(1)
}

func (m *MockRepository) CreateSchedule(s *models.Schedule) error {
	return m.Called(s).Error(0)
}

func (m *MockRepository) GetSchedule(scheduleID string) (*models.Schedule, error) {
	args := m.Called(scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Schedule), args.Error(1)
}

func (m *MockRepository) ListSchedules(organizationID string) ([]models.Schedule, error) {
	args := m.Called(organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Schedule), args.Error(1)
}

func (m *MockRepository) UpdateSchedule(s *models.Schedule) error {
	return m.Called(s).Error(0)
}

func (m *MockRepository) DeleteSchedule(scheduleID string) error {
	return m.Called(scheduleID).Error(0)
}

func (m *MockRepository) ListNotifications(userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	args := m.Called(userID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockRepository) MarkNotificationRead(userID, notificationID string) error {
	return m.Called(userID, notificationID).Error(0)
}

func (m *MockRepository) GetSyncStatus(organizationID string, limit int) (*models.SyncStatusSummary, error) {
	args := m.Called(organizationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncStatusSummary), args.Error(1)
}

func (m *MockRepository) RetryEvent(organizationID, eventID string) error {
	return m.Called(organizationID, eventID).Error(0)
}

func (m *MockRepository) GetOrganizationBySlug(slug string) (*models.Organization, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockRepository) CreateOrganization(org *models.Organization) error {
	return m.Called(org).Error(0)
}

func (m *MockRepository) GetUserByGoogleID(googleID string) (*models.User, error) {
	args := m.Called(googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) CountUsers(organizationID string) (int, error) {
	args := m.Called(organizationID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) UpsertUser(user *models.User) error {
	return m.Called(user).Error(0)
}

func (m *MockRepository) ListUsers(organizationID string) ([]models.User, error) {
	args := m.Called(organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockRepository) UpdateUserRole(userID string, role models.Role) error {
	return m.Called(userID, role).Error(0)
}

// MockSyncWorker is a mock implementation of SyncWorker interface
type MockSyncWorker struct {
	mock.Mock
}

var _ SyncWorker = (*MockSyncWorker)(nil)

func (m *MockSyncWorker) DispatchImmediate(eventIDs []string) {
	m.Called(eventIDs)
}

// MockSessionStore is a mock implementation of SessionStore interface
type MockSessionStore struct {
	mock.Mock
}

var _ SessionStore = (*MockSessionStore)(nil)

func (m *MockSessionStore) Create(user *models.User) (*models.Session, error) {
	args := m.Called(user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) Get(sessionID string) (*models.Session, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) Delete(sessionID string) error {
	return m.Called(sessionID).Error(0)
}

// staticRouter routes every event to fixed targets
type staticRouter map[models.EventType][]string

func (r staticRouter) Targets(event models.EventType) []string {
	return r[event]
}

var testRouter = staticRouter{
	models.EventChecklistCompleted: {"n8n", "sheets"},
	models.EventActionPlanCreated:  {"notion", "n8n"},
	models.EventActionPlanUpdated:  {"notion", "n8n"},
}

var (
	operator = Actor{UserID: "user-1", OrganizationID: "org-1", Role: models.RoleOperator}
	manager  = Actor{UserID: "mgr-1", OrganizationID: "org-1", Role: models.RoleManager}
	admin    = Actor{UserID: "admin-1", OrganizationID: "org-1", Role: models.RoleAdmin}
)

// fixClock pins the service clock for the duration of a test
func fixClock(t interface{ Cleanup(func()) }, at time.Time) {
	prev := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = prev })
}
