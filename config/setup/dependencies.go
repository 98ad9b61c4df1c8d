package setup

import (
	"checkquest/app"
	"checkquest/config"
	"checkquest/database"
	"checkquest/mirror"
	"checkquest/session"
	"checkquest/sync"
	"context"
	"log/slog"
)

// InitDatabase initializes the SQLite database and runs migrations
func InitDatabase(dbPath string, logger *slog.Logger) (*database.DB, error) {
	db, err := database.New(dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("database initialized", "path", dbPath)
	return db, nil
}

// InitApp initializes the application with all dependencies and starts the sync worker
func InitApp(ctx context.Context, db *database.DB, logger *slog.Logger) (*app.App, *sync.Worker, error) {
	repo := database.NewRepository(db)

	sessionStore := session.NewStore(repo, session.DefaultTTL)
	logger.Info("session store initialized with database")

	// Notion pages are looked up on the action plan so updates patch the page created earlier
	pages := func(planID string) (string, error) {
		plan, err := repo.GetActionPlan(planID)
		if err != nil || plan == nil {
			return "", err
		}
		return plan.NotionPageID, nil
	}

	mirrors, err := mirror.FromConfig(ctx, config.AppConfig, pages)
	if err != nil {
		return nil, nil, err
	}

	syncWorker := sync.NewWorker(repo, mirrors)
	syncWorker.Start()
	logger.Info("sync worker started")

	application := app.New(repo, syncWorker, sessionStore, mirrors, logger)
	logger.Info("application initialized with dependency injection")

	return application, syncWorker, nil
}

// Shutdown performs graceful shutdown of all services
func Shutdown(syncWorker *sync.Worker, db *database.DB, logger *slog.Logger) {
	logger.Info("shutting down services...")

	// Stop sync worker
	if syncWorker != nil {
		syncWorker.Stop()
		logger.Info("sync worker stopped")
	}

	// Close database
	if db != nil {
		db.Close()
		logger.Info("database closed")
	}
}
