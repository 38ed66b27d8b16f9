package handlers

import (
	"net/http"

	"github.com/DavidCLumin/estate-agent-crm/internal/api/middleware"
	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/internal/services"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/labstack/echo/v4"
)

type PropertyHandler struct {
	properties *services.PropertyService
	log        logger.Logger
}

func NewPropertyHandler(properties *services.PropertyService, log logger.Logger) *PropertyHandler {
	return &PropertyHandler{properties: properties, log: log}
}

func (h *PropertyHandler) List(c echo.Context) error {
	identity := middleware.IdentityFrom(c)

	properties, err := h.properties.List(c.Request().Context(), identity.TenantID, identity.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domain.ProjectProperties(properties, identity.Role))
}

func (h *PropertyHandler) Get(c echo.Context) error {
	identity := middleware.IdentityFrom(c)

	property, err := h.properties.Get(c.Request().Context(), identity.TenantID, c.Param("id"), identity.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domain.ProjectProperty(property, identity.Role))
}

func (h *PropertyHandler) Create(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := middleware.RequireRole(identity, domain.RoleTenantAdmin, domain.RoleAgent); err != nil {
		return err
	}

	var input services.PropertyInput
	if err := c.Bind(&input); err != nil {
		return domain.NewAppError(http.StatusBadRequest, "VALIDATION", "Invalid request body")
	}

	property, err := h.properties.Create(c.Request().Context(),
		identity.TenantID, identity.UserID, c.RealIP(), input)
	if err != nil {
		return err
	}

	h.log.Info("Property created", "property_id", property.ID, "tenant_id", property.TenantID)
	return c.JSON(http.StatusCreated, property)
}

func (h *PropertyHandler) Update(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := middleware.RequireRole(identity, domain.RoleTenantAdmin, domain.RoleAgent); err != nil {
		return err
	}

	var patch services.PropertyPatch
	if err := c.Bind(&patch); err != nil {
		return domain.NewAppError(http.StatusBadRequest, "VALIDATION", "Invalid request body")
	}

	property, err := h.properties.Update(c.Request().Context(),
		identity.TenantID, identity.UserID, c.RealIP(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, property)
}

func (h *PropertyHandler) Delete(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := middleware.RequireRole(identity, domain.RoleTenantAdmin); err != nil {
		return err
	}

	property, err := h.properties.Delete(c.Request().Context(),
		identity.TenantID, identity.UserID, c.RealIP(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, property)
}

func (h *PropertyHandler) Publish(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := middleware.RequireRole(identity, domain.RoleTenantAdmin, domain.RoleAgent); err != nil {
		return err
	}

	property, err := h.properties.Publish(c.Request().Context(),
		identity.TenantID, identity.UserID, c.RealIP(), c.Param("id"))
	if err != nil {
		return err
	}

	h.log.Info("Property published", "property_id", property.ID, "tenant_id", property.TenantID)
	return c.JSON(http.StatusOK, property)
}

func (h *PropertyHandler) CloseBidding(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := middleware.RequireRole(identity, domain.RoleTenantAdmin, domain.RoleAgent); err != nil {
		return err
	}

	property, err := h.properties.CloseBidding(c.Request().Context(),
		identity.TenantID, identity.UserID, c.Param("id"))
	if err != nil {
		return err
	}

	h.log.Info("Bidding closed", "property_id", property.ID, "tenant_id", property.TenantID)
	return c.JSON(http.StatusOK, property)
}

func (h *PropertyHandler) AcceptOffer(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := middleware.RequireRole(identity, domain.RoleTenantAdmin, domain.RoleAgent); err != nil {
		return err
	}

	result, err := h.properties.AcceptOffer(c.Request().Context(),
		identity.TenantID, identity.UserID, c.Param("id"), c.Param("bidId"))
	if err != nil {
		return err
	}

	h.log.Info("Offer accepted",
		"property_id", result.Property.ID, "bid_id", result.AcceptedBidID, "tenant_id", identity.TenantID)
	return c.JSON(http.StatusOK, result)
}
