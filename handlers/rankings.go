package handlers

import (
	"checkquest/app"
	"checkquest/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetRanking returns the leaderboard. Query: period (week, month, all), limit
func GetRanking(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "week")
		rows, err := a.RankingService.Leaderboard(middleware.GetActor(c), period, c.QueryInt("limit", 20))
		if err != nil {
			return serviceError(c, "Failed to fetch ranking", err)
		}
		return success(c, fiber.Map{"period": period, "ranking": rows})
	}
}

// GetDashboard returns aggregate checklist and action plan stats
func GetDashboard(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "month")
		stats, err := a.RankingService.Dashboard(middleware.GetActor(c), period)
		if err != nil {
			return serviceError(c, "Failed to fetch dashboard", err)
		}
		return success(c, fiber.Map{"period": period, "stats": stats})
	}
}

// GetMyProgress returns the caller's XP, level, streak and badges
func GetMyProgress(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		progress, err := a.RankingService.Progress(middleware.GetUserID(c))
		if err != nil {
			return serviceError(c, "Failed to fetch progress", err)
		}
		return success(c, fiber.Map{"progress": progress})
	}
}
