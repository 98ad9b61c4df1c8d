package app

import (
	"checkquest/database"
	"checkquest/mirror"
	"checkquest/services"
	"checkquest/session"
	"checkquest/validator"
	"log/slog"
)

// App holds all application dependencies
// This struct is the central point for dependency injection
type App struct {
	Repo         *database.Repository
	SyncWorker   services.SyncWorker
	SessionStore *session.Store
	Mirrors      *mirror.Registry
	Validator    *validator.Validator
	Logger       *slog.Logger

	// Services
	AuthService         *services.AuthService
	TemplateService     *services.TemplateService
	EntryService        *services.EntryService
	ActionPlanService   *services.ActionPlanService
	RankingService      *services.RankingService
	ScheduleService     *services.ScheduleService
	NotificationService *services.NotificationService
	ReplayService       *services.ReplayService
	SeedService         *services.SeedService
}

// New creates a new App instance with all dependencies.
// syncWorker may be nil, in which case mirror events wait for the next worker pass.
func New(repo *database.Repository, syncWorker services.SyncWorker, sessionStore *session.Store, mirrors *mirror.Registry, logger *slog.Logger) *App {
	v := validator.New()
	if mirrors == nil {
		mirrors = mirror.NewRegistry()
	}

	templates := services.NewTemplateService(repo)
	entries := services.NewEntryService(repo, mirrors, syncWorker)
	actionPlans := services.NewActionPlanService(repo, mirrors, syncWorker)

	return &App{
		Repo:         repo,
		SyncWorker:   syncWorker,
		SessionStore: sessionStore,
		Mirrors:      mirrors,
		Validator:    v,
		Logger:       logger,

		AuthService:         services.NewAuthService(repo, sessionStore),
		TemplateService:     templates,
		EntryService:        entries,
		ActionPlanService:   actionPlans,
		RankingService:      services.NewRankingService(repo),
		ScheduleService:     services.NewScheduleService(repo),
		NotificationService: services.NewNotificationService(repo),
		ReplayService:       services.NewReplayService(repo, entries, actionPlans, v),
		SeedService:         services.NewSeedService(repo, templates, v),
	}
}
