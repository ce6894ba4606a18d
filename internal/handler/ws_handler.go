package handler

import (
	"go-inventory-ledger/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RegisterWebSocket mounts the stock event feed at /ws.
func RegisterWebSocket(app fiber.Router, hub *ws.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.Register(c)
		defer hub.Unregister(c)

		for {
			// Clients only listen; reading detects the disconnect.
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
