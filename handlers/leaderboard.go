package handlers

import (
	"github.com/gofiber/fiber/v2"

	"leaderboard-service/middleware"
	"leaderboard-service/services"
	"leaderboard-service/utils"
)

// SetupLeaderboardRoutes registers the read API and the admin operations.
// With the API flag disabled every route answers 404 — indistinguishable
// from a route that never existed.
func SetupLeaderboardRoutes(app *fiber.App, leaderboards *services.LeaderboardService, snapshots *services.SnapshotService, settings *utils.Settings) {
	boards := app.Group("/leaderboards", middleware.APIEnabledMiddleware(settings))

	// 🔓 Read surface (gateway-authenticated, PII-free)
	boards.Get("/tournament/:id", leaderboards.GetTournamentLeaderboard)
	boards.Get("/player/:id/history", leaderboards.GetPlayerHistory)
	boards.Get("/:scope", leaderboards.GetScopedLeaderboard)

	// 🔒 Admin-only operations
	admin := app.Group("/admin", middleware.APIEnabledMiddleware(settings), middleware.UserContextMiddleware())
	admin.Post("/leaderboards/invalidate", leaderboards.InvalidateLeaderboard)
	admin.Post("/snapshots/run", snapshots.RunNow)
}
