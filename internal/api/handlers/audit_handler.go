package handlers

import (
	"net/http"
	"strconv"

	"github.com/DavidCLumin/estate-agent-crm/internal/api/middleware"
	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultAuditLimit = 100

type AuditHandler struct {
	audit domain.AuditRepository
	log   logger.Logger
}

func NewAuditHandler(audit domain.AuditRepository, log logger.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, log: log}
}

func (h *AuditHandler) List(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := middleware.RequireRole(identity, domain.RoleTenantAdmin, domain.RoleAgent); err != nil {
		return err
	}

	limit := defaultAuditLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			return domain.NewAppError(http.StatusBadRequest, "VALIDATION", "limit must be between 1 and 1000")
		}
		limit = parsed
	}

	events, err := h.audit.ListRecent(c.Request().Context(), identity.TenantID, limit)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*domain.AuditEvent{}
	}
	return c.JSON(http.StatusOK, events)
}
