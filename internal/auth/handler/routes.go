package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/realtime"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler, hub *realtime.Hub) {
	api := app.Group("/api/v1")

	api.Post("/register", h.Register)
	api.Post("/login", h.Login)
	api.Get("/logic-demo", h.LogicDemo)

	protected := api.Group("", h.Protect())
	protected.Post("/logout", h.Logout)
	protected.Post("/logout-all", h.LogoutAll)
	protected.Post("/revoke-device", h.RevokeDevice)
	protected.Get("/security-status", h.SecurityStatus)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(hub.Handler()))
}
