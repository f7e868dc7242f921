package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/weseeyou/backend/internal/dto"
	"github.com/weseeyou/backend/internal/middleware"
	"github.com/weseeyou/backend/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) Submit(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := h.reports.Submit(c.UserContext(), services.SubmitReportInput{
		Platform:     req.Platform,
		Handle:       req.Handle,
		ReporterID:   principal,
		Category:     req.Category,
		Description:  req.Description,
		EvidenceURLs: req.EvidenceURLs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// MyCount handles GET /me/reports/count for the calling principal only.
func (h *ReportHandler) MyCount(c *fiber.Ctx) error {
	principal, err := middleware.PrincipalID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	n, err := h.reports.CountByReporter(c.UserContext(), principal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReporterCountResponse{Count: n})
}
