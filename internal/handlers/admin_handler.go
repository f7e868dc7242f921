package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/weseeyou/backend/internal/dto"
	"github.com/weseeyou/backend/internal/middleware"
	"github.com/weseeyou/backend/internal/services"
)

// AdminHandler backs the moderator dashboard.
type AdminHandler struct {
	accounts   *services.AccountService
	reports    *services.ReportService
	moderation *services.ModerationService
}

func NewAdminHandler(accounts *services.AccountService, reports *services.ReportService, moderation *services.ModerationService) *AdminHandler {
	return &AdminHandler{accounts: accounts, reports: reports, moderation: moderation}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.accounts.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *AdminHandler) ListAccounts(c *fiber.Ctx) error {
	f := services.AccountFilter{
		Platform: c.Query("platform"),
		Status:   c.Query("status"),
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	}
	accounts, total, err := h.accounts.List(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.Page{Items: accounts, Total: total, Offset: f.Offset})
}

func (h *AdminHandler) ListReports(c *fiber.Ctx) error {
	f := services.ReportFilter{
		Category: c.Query("category"),
		Platform: c.Query("platform"),
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	}
	reports, total, err := h.reports.List(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.Page{Items: reports, Total: total, Offset: f.Offset})
}

// SetStatus handles PUT /admin/accounts/:id/status.
func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid account ID")
	}

	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	acct, err := h.moderation.SetStatus(c.UserContext(), services.SetStatusInput{
		AccountID:   id,
		Status:      req.Status,
		Notes:       req.Notes,
		ModeratorID: middleware.ModeratorID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(acct)
}
