package handler

import (
	"fmt"

	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/internal/pkg/serverutils"
	internalWS "pagefiber-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// AlertHandler streams render failure alerts to admin dashboards
type AlertHandler struct {
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewAlertHandler(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *AlertHandler {
	return &AlertHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs authenticates the handshake before upgrading. Browsers cannot set
// headers on websocket requests, so the token may come as ?token=.
func (h *AlertHandler) ServeWs(c *fiber.Ctx) error {
	if h.jwtSecret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, "Alerts disabled: JWT_SECRET not set"))
	}

	claims, err := serverutils.ParseClaims(serverutils.BearerToken(c), h.jwtSecret)
	if err != nil {
		h.logger.Warn("AlertHandler", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid or missing token"))
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(403, "Access denied: Admins only"))
	}

	userID := "admin"
	if v, ok := claims["user_id"]; ok {
		userID = fmt.Sprint(v)
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("AlertHandler", "Alert session started", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("AlertHandler", "Alert session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

func (h *AlertHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/admin/alerts/ws", h.ServeWs)
}
