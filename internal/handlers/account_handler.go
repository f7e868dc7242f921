package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/weseeyou/backend/internal/services"
)

type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Search handles GET /accounts/search?handle=&platform=.
func (h *AccountHandler) Search(c *fiber.Ctx) error {
	accounts, err := h.accounts.Search(c.UserContext(), c.Query("handle"), c.Query("platform"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"accounts": accounts})
}

// Get handles GET /accounts/:id and includes the category breakdown.
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid account ID")
	}
	detail, err := h.accounts.Detail(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// Lookup handles GET /accounts/:platform/:handle.
func (h *AccountHandler) Lookup(c *fiber.Ctx) error {
	acct, err := h.accounts.Get(c.UserContext(), c.Params("platform"), c.Params("handle"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(acct)
}
