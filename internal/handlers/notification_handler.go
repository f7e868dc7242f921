package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/weseeyou/backend/internal/dto"
	"github.com/weseeyou/backend/internal/middleware"
	"github.com/weseeyou/backend/internal/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /me/notifications. Loading the inbox marks it read.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	items, err := h.notifications.List(c.UserContext(), principal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NotificationsResponse{Notifications: items})
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	n, err := h.notifications.UnreadCount(c.UserContext(), principal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.UnreadCountResponse{Unread: n})
}
