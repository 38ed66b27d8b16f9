package handlers

import (
	"net/http"

	"github.com/DavidCLumin/estate-agent-crm/internal/api/middleware"
	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	ws "github.com/DavidCLumin/estate-agent-crm/internal/infrastructure/websocket"
	"github.com/DavidCLumin/estate-agent-crm/internal/services"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocketHandler serves the staff-only live bid feed for a property.
type WebSocketHandler struct {
	properties *services.PropertyService
	hub        *ws.Hub
	upgrader   websocket.Upgrader
	log        logger.Logger
}

func NewWebSocketHandler(properties *services.PropertyService, hub *ws.Hub, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		properties: properties,
		hub:        hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *WebSocketHandler) Watch(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := middleware.RequireRole(identity, domain.RoleTenantAdmin, domain.RoleAgent); err != nil {
		return err
	}

	// 404s before upgrading when the property is missing or cross-tenant.
	property, err := h.properties.Get(c.Request().Context(), identity.TenantID, c.Param("id"), identity.Role)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed", "property_id", property.ID, "error", err)
		return err
	}

	client := ws.NewClient(conn, identity.UserID, property.ID)
	h.hub.Register(client)
	defer func() {
		h.hub.Unregister(client)
		client.Close()
	}()

	// The feed is one-way; drain the connection until the client goes
	// away so pings and close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}
