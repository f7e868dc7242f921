package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weseeyou/backend/internal/config"
	"github.com/weseeyou/backend/internal/handlers"
	"github.com/weseeyou/backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	accountHandler *handlers.AccountHandler,
	reportHandler *handlers.ReportHandler,
	discoveryHandler *handlers.DiscoveryHandler,
	exportHandler *handlers.ExportHandler,
	adminHandler *handlers.AdminHandler,
	notificationHandler *handlers.NotificationHandler,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Public lookups. /search is registered before /:id.
	api.Get("/accounts/search", accountHandler.Search)
	api.Get("/accounts/:id", accountHandler.Get)
	api.Get("/accounts/:platform/:handle", accountHandler.Lookup)
	api.Get("/trending", discoveryHandler.Trending)
	api.Get("/feed", discoveryHandler.Feed)
	api.Get("/blocklist/export", exportHandler.Blocklist)

	// Report submission: 10 req/min per IP on top of the general limit
	submitLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	api.Post("/reports", submitLimit, middleware.JWTProtected(cfg), reportHandler.Submit)
	api.Get("/me/reports/count", middleware.JWTProtected(cfg), reportHandler.MyCount)
	api.Get("/me/notifications", middleware.JWTProtected(cfg), notificationHandler.List)
	api.Get("/me/notifications/unread-count", middleware.JWTProtected(cfg), notificationHandler.UnreadCount)

	// Moderator dashboard
	admin := api.Group("/admin", middleware.AdminRequired(cfg))
	admin.Get("/stats", adminHandler.Stats)
	admin.Get("/accounts", adminHandler.ListAccounts)
	admin.Put("/accounts/:id/status", adminHandler.SetStatus)
	admin.Get("/reports", adminHandler.ListReports)
}
