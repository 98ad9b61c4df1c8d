package setup

import (
	"checkquest/app"
	"checkquest/handlers"
	"checkquest/middleware"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(fiberApp *fiber.App, application *app.App) {

	// Static assets with aggressive caching
	fiberApp.Static("/static", "./static", fiber.Static{
		Compress:      true,
		CacheDuration: 365 * 24 * time.Hour, // 1 year for versioned assets
		MaxAge:        31536000,             // 1 year in seconds
	})

	// PWA
	fiberApp.Get("/", handlers.HomePage(application))
	fiberApp.Get("/offline", handlers.OfflinePage)
	fiberApp.Get("/manifest.webmanifest", handlers.WebManifest)
	fiberApp.Get("/sw.js", handlers.ServiceWorker(application))
	fiberApp.Get("/precache.json", handlers.Precache(application))

	// Public routes
	fiberApp.Get("/health", handlers.Health)
	fiberApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	fiberApp.Get("/api/time", handlers.ServerTime)

	// Auth routes
	fiberApp.Post("/api/auth/login", handlers.Login(application))
	fiberApp.Post("/api/auth/logout", handlers.Logout(application))
	fiberApp.Get("/api/auth/me", handlers.Me(application))

	// Protected API routes
	api := fiberApp.Group("/api", middleware.AuthRequired(application.SessionStore, application.AuthService), limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := c.Locals("userID").(string); ok {
				return "user:" + userID
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded for your account",
			})
		},
	}))

	registerAPI(api, application)
}

// registerAPI wires the authenticated endpoints. Split out so tests can mount
// them behind a fake session.
func registerAPI(api fiber.Router, application *app.App) {
	manager := middleware.RequireManager()
	admin := middleware.RequireAdmin()

	api.Get("/templates", handlers.ListTemplates(application))
	api.Get("/templates/:id", handlers.GetTemplate(application))
	api.Post("/templates", manager, handlers.CreateTemplate(application))
	api.Put("/templates/:id", manager, handlers.UpdateTemplate(application))
	api.Put("/templates/:id/active", manager, handlers.SetTemplateActive(application))
	api.Delete("/templates/:id", manager, handlers.DeleteTemplate(application))

	api.Post("/entries", handlers.SubmitEntry(application))
	api.Get("/entries", handlers.ListEntries(application))
	api.Get("/entries/:id", handlers.GetEntry(application))

	api.Get("/action-plans", handlers.ListActionPlans(application))
	api.Get("/action-plans/:id", handlers.GetActionPlan(application))
	api.Patch("/action-plans/:id", handlers.UpdateActionPlan(application))

	api.Get("/rankings", handlers.GetRanking(application))
	api.Get("/dashboard", handlers.GetDashboard(application))
	api.Get("/me/progress", handlers.GetMyProgress(application))

	api.Get("/schedules", manager, handlers.ListSchedules(application))
	api.Post("/schedules/preview", manager, handlers.PreviewCron(application))
	api.Post("/schedules", manager, handlers.CreateSchedule(application))
	api.Get("/schedules/:id", manager, handlers.GetSchedule(application))
	api.Put("/schedules/:id", manager, handlers.UpdateSchedule(application))
	api.Delete("/schedules/:id", manager, handlers.DeleteSchedule(application))
	api.Get("/schedules/:id/preview", manager, handlers.PreviewSchedule(application))

	api.Get("/notifications", handlers.ListNotifications(application))
	api.Get("/notifications/push", handlers.PushPayloads(application))
	api.Post("/notifications/:id/read", handlers.MarkNotificationRead(application))

	api.Get("/users", manager, handlers.ListUsers(application))
	api.Put("/users/:id/role", admin, handlers.UpdateUserRole(application))

	api.Post("/sync/replay", handlers.ReplayMutations(application))
	api.Get("/sync/status", handlers.GetSyncStatus(application))
	api.Post("/sync/retry/:id", admin, handlers.RetryEvent(application))
}
