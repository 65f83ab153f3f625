package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	autherror "github.com/Shubham20040627/Smart-Account-Breach-System/internal/errors"
)

const (
	localAccount = "account"
	localToken   = "token"
)

// Protect authenticates the request. A token must both verify structurally
// (signature, expiry) and still be present in the account's active session
// set; a revoked token fails the second check no matter how valid it looks.
func (h *AuthHandler) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authorized, no token"})
		}

		claims, err := h.tokenService.Verify(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authorized, token failed"})
		}

		account, err := h.securityService.ValidateSession(c.Context(), claims.UserID, token)
		if err != nil {
			if errors.Is(err, autherror.ErrSessionInvalidated) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session invalidated. Please login again."})
			}
			if errors.Is(err, autherror.ErrAccountNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "account no longer exists"})
			}
			h.log.Error("session validation failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authorized"})
		}

		c.Locals(localAccount, account)
		c.Locals(localToken, token)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Cookies("token")
}
