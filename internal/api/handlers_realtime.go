package api

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const contextSocketUserKey = "socket_user_id"

// WebSocketUpgrade authenticates the handshake before the connection is
// upgraded. Browsers cannot set headers on a websocket request, so the
// token query parameter is accepted here.
func (handler *Handler) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return apiError(c, fiber.StatusUpgradeRequired, "websocket upgrade required")
	}
	user, err := handler.authenticateRequest(c)
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	c.Locals(contextSocketUserKey, user.ID)
	return c.Next()
}

func (handler *Handler) WebSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(contextSocketUserKey).(uint)
		if userID == 0 {
			_ = conn.Close()
			return
		}
		if err := handler.hub.Serve(context.Background(), conn, userID); err != nil {
			handler.logger.Warn("realtime session rejected", zap.Uint("user_id", userID), zap.Error(err))
		}
	})
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
