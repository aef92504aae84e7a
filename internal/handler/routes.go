package handler

import (
	"reel-quizzer/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes registers the browsing API and the static data mount.
func SetupRoutes(app *fiber.App, h *EntryHandler, dataRoot string) {
	app.Static("/data", dataRoot)
	app.Get("/", h.Index)

	api := app.Group("/api")
	api.Get("/health", h.Health)
	api.Get("/entries", h.ListEntries)
	api.Get("/entry", middleware.RequireQuery("id"), h.GetEntry)
	api.Get("/attempts", middleware.RequireQuery("id"), h.ListAttempts)
	api.Get("/profile-pic", middleware.RequireQuery("id"), h.ProfilePic)
	api.Post("/reload", h.Reload)
}
