package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/domain"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/dto"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/service"
	autherror "github.com/Shubham20040627/Smart-Account-Breach-System/internal/errors"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/logicdemo"
)

type AuthHandler struct {
	securityService *service.SecurityService
	tokenService    service.TokenGenerator
	demo            *logicdemo.Runner
	validate        *validator.Validate
	log             *slog.Logger
}

func NewAuthHandler(securityService *service.SecurityService, tokenService service.TokenGenerator, demo *logicdemo.Runner, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		securityService: securityService,
		tokenService:    tokenService,
		demo:            demo,
		validate:        validator.New(),
		log:             log,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	account, err := h.securityService.Register(c.Context(), input)
	if err != nil {
		if errors.Is(err, autherror.ErrEmailAlreadyInUse) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.log.Error("registration failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    account.ID,
		"email": account.Email,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Capture request metadata for the fingerprint.
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	result, err := h.securityService.Login(c.Context(), input)
	if err != nil {
		return h.loginError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// loginError maps the security engine's outcome errors onto HTTP responses.
// Unknown accounts deliberately share the invalid-credentials response so the
// endpoint does not confirm which emails exist.
func (h *AuthHandler) loginError(c *fiber.Ctx, err error) error {
	var lockedErr *autherror.AccountLockedError
	if errors.As(err, &lockedErr) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":               "account is locked",
			"locked":              true,
			"lock_until":          lockedErr.Until,
			"retry_after_seconds": int(lockedErr.Remaining(time.Now()).Seconds()),
		})
	}

	var credErr *autherror.CredentialsError
	if errors.As(err, &credErr) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":              "invalid credentials",
			"attempts_remaining": credErr.AttemptsRemaining,
		})
	}

	if errors.Is(err, autherror.ErrAccountNotFound) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	if errors.Is(err, autherror.ErrTooManyOrigins) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "too many active session origins; log out another session first",
		})
	}

	h.log.Error("login failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login failed"})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	account := c.Locals(localAccount).(*domain.Account)
	token := c.Locals(localToken).(string)

	if err := h.securityService.Logout(c.Context(), account.ID, token); err != nil {
		h.log.Error("logout failed", "account_id", account.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "logout failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	account := c.Locals(localAccount).(*domain.Account)

	if err := h.securityService.LogoutAll(c.Context(), account.ID); err != nil {
		h.log.Error("logout-all failed", "account_id", account.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "logout failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logged out from all devices"})
}

func (h *AuthHandler) RevokeDevice(c *fiber.Ctx) error {
	var input dto.RevokeDeviceInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	account := c.Locals(localAccount).(*domain.Account)

	if err := h.securityService.RevokeDevice(c.Context(), account.ID, input.DeviceID); err != nil {
		h.log.Error("device revocation failed", "account_id", account.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "device revocation failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Device sessions revoked"})
}

func (h *AuthHandler) SecurityStatus(c *fiber.Ctx) error {
	account := c.Locals(localAccount).(*domain.Account)

	status, err := h.securityService.SecurityStatus(c.Context(), account.ID)
	if err != nil {
		h.log.Error("security status failed", "account_id", account.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load security status"})
	}

	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *AuthHandler) LogicDemo(c *fiber.Ctx) error {
	output := h.demo.Run(c.Context(), c.Query("device_id"))
	return c.Status(fiber.StatusOK).SendString(output)
}
