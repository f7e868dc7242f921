package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/weseeyou/backend/internal/database"
	"github.com/weseeyou/backend/internal/dto"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db   *gorm.DB
	feed pinger
}

// NewHealthHandler reports on the database and, when configured, the feed
// stream. feed may be nil.
func NewHealthHandler(db *gorm.DB, feed pinger) *HealthHandler {
	return &HealthHandler{db: db, feed: feed}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	dbStatus := "ok"
	if err := database.Ping(ctx, h.db); err != nil {
		dbStatus = "unhealthy: " + err.Error()
		status = "degraded"
	}

	feedStatus := "disabled"
	if h.feed != nil {
		feedStatus = "ok"
		if err := h.feed.Ping(ctx); err != nil {
			feedStatus = "unhealthy: " + err.Error()
		}
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Feed:      feedStatus,
	})
}
