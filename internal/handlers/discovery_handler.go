package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/weseeyou/backend/internal/services"
)

// DiscoveryHandler serves the public trending list and activity feed.
type DiscoveryHandler struct {
	trending *services.TrendingService
	feed     *services.FeedService
}

func NewDiscoveryHandler(trending *services.TrendingService, feed *services.FeedService) *DiscoveryHandler {
	return &DiscoveryHandler{trending: trending, feed: feed}
}

// Trending handles GET /trending?period=24h|7d|30d&limit=.
func (h *DiscoveryHandler) Trending(c *fiber.Ctx) error {
	period := c.Query("period", services.DefaultTrendingPeriod)
	entries, err := h.trending.Trending(c.UserContext(), period, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"period": period, "accounts": entries})
}

// Feed handles GET /feed?platform=&type=&limit=.
func (h *DiscoveryHandler) Feed(c *fiber.Ctx) error {
	feed, err := h.feed.List(c.UserContext(), services.FeedFilter{
		Platform: c.Query("platform"),
		Type:     c.Query("type"),
		Limit:    c.QueryInt("limit", 0),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"events": feed})
}
