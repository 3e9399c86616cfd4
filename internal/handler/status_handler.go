package handler

import (
	"fmt"
	"os"
	"strings"

	"ai-docchat-be/internal/pkg/logger"
	internalWS "ai-docchat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StatusHandler upgrades clients onto the websocket hub so they receive
// ingestion status pushes for their tenant.
type StatusHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewStatusHandler(hub *internalWS.Hub, log logger.ILogger) *StatusHandler {
	return &StatusHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *StatusHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/status/v1")
	g.Get("ws", h.ServeWS)
}

// ServeWS authenticates via the "token" query param (browsers cannot set
// headers on websocket dials) falling back to the Authorization header,
// then hands the connection to the hub.
func (h *StatusHandler) ServeWS(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	tenantIdStr, ok := claims["tenant_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing tenant_id"})
	}

	tenantId, err := uuid.Parse(tenantIdStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid tenant id format in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("status_handler", "websocket session started", map[string]interface{}{"tenant_id": tenantId})
			internalWS.ServeWs(h.hub, conn, tenantId)
			h.logger.Info("status_handler", "websocket session ended", map[string]interface{}{"tenant_id": tenantId})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
