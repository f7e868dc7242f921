package handlers

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/weseeyou/backend/internal/dto"
	"github.com/weseeyou/backend/internal/services"
)

var exportHeader = []string{"platform", "handle", "flag_count", "safety_tier", "safety_score", "status", "last_flagged_at"}

type ExportHandler struct {
	accounts *services.AccountService
	now      func() time.Time
}

func NewExportHandler(accounts *services.AccountService) *ExportHandler {
	return &ExportHandler{accounts: accounts, now: func() time.Time { return time.Now().UTC() }}
}

// Blocklist handles GET /blocklist/export?format=json|csv&tier=.
func (h *ExportHandler) Blocklist(c *fiber.Ctx) error {
	format := c.Query("format", "json")
	if format != "json" && format != "csv" {
		return badRequest(c, "format must be json or csv")
	}
	tier := c.Query("tier", "all")

	rows, err := h.accounts.ExportRows(c.UserContext(), tier)
	if err != nil {
		return respondError(c, err)
	}

	if format == "json" {
		return c.JSON(fiber.Map{
			"meta":     dto.ExportMeta{GeneratedAt: h.now(), Tier: tier, Count: len(rows)},
			"accounts": rows,
		})
	}

	body, err := encodeCSV(rows)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="blocklist.csv"`)
	return c.Send(body)
}

func encodeCSV(rows []services.ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		last := ""
		if r.LastFlaggedAt != nil {
			last = r.LastFlaggedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			string(r.Platform),
			r.Handle,
			strconv.Itoa(r.FlagCount),
			string(r.SafetyTier),
			strconv.Itoa(r.SafetyScore),
			string(r.Status),
			last,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
