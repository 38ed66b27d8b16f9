package handlers

import (
	"net/http"

	"github.com/DavidCLumin/estate-agent-crm/internal/api/middleware"
	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/internal/services"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type BidHandler struct {
	bids *services.BidService
	log  logger.Logger
}

type SubmitBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func NewBidHandler(bids *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{bids: bids, log: log}
}

func (h *BidHandler) SubmitBid(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := middleware.RequireRole(identity, domain.RoleBuyer); err != nil {
		return err
	}

	var req SubmitBidRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewAppError(http.StatusBadRequest, "VALIDATION", "Invalid request body")
	}

	bid, err := h.bids.SubmitBid(c.Request().Context(),
		identity.TenantID, identity.UserID, c.Param("id"), req.Amount)
	if err != nil {
		return err
	}

	h.log.Info("Bid recorded",
		"bid_id", bid.ID, "property_id", bid.PropertyID, "tenant_id", bid.TenantID)
	return c.JSON(http.StatusCreated, bid)
}

func (h *BidHandler) GetBids(c echo.Context) error {
	identity := middleware.IdentityFrom(c)

	snapshot, err := h.bids.GetBidSnapshot(c.Request().Context(),
		identity.TenantID, c.Param("id"), identity.Role, identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

func (h *BidHandler) VerifyBid(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := middleware.RequireRole(identity, domain.RoleTenantAdmin, domain.RoleAgent); err != nil {
		return err
	}

	valid, err := h.bids.VerifyBid(c.Request().Context(),
		identity.TenantID, c.Param("id"), c.Param("bidId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"valid": valid})
}
