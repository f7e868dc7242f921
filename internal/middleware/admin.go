package middleware

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/weseeyou/backend/internal/config"
	"github.com/weseeyou/backend/internal/dto"
)

// AdminRequired admits moderators. It checks, in order:
// 1. The X-Admin-Token header against ADMIN_TOKEN
// 2. A valid bearer token whose email or sub is in the config lists
// 3. A valid bearer token carrying role=admin
func AdminRequired(cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)
	adminUserIDs := parseCSV(cfg.AdminUserIDs)
	key := []byte(cfg.JWTSecret)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		token, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return key, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized: invalid or expired token",
			})
		}
		c.Locals("user", token)

		mc, err := claims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid claims",
			})
		}

		email, _ := mc["email"].(string)
		sub, _ := mc["sub"].(string)
		role, _ := mc["role"].(string)

		if (email != "" && slices.Contains(adminEmails, strings.ToLower(email))) ||
			(sub != "" && slices.Contains(adminUserIDs, strings.ToLower(sub))) ||
			role == "admin" {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

// ModeratorID returns the acting moderator for audit entries, or nil when the
// request was admitted by the shared admin token.
func ModeratorID(c *fiber.Ctx) *uuid.UUID {
	id, err := PrincipalID(c)
	if err != nil {
		return nil
	}
	return &id
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(p))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
