package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries an HTTP status and a stable machine-readable code
// alongside the human message. Clients branch on Code, never on text.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

// AsAppError unwraps err to an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Bid admission rejections. The BELOW_MINIMUM_OFFER message is
// intentionally generic: the numeric floor must never leak to bidders.
var (
	ErrBiddingClosed     = NewAppError(http.StatusConflict, "BIDDING_CLOSED", "Bidding is closed")
	ErrBelowMinimumOffer = NewAppError(http.StatusConflict, "BELOW_MINIMUM_OFFER", "Bid is below the minimum acceptable offer")
	ErrMustExceedHighest = NewAppError(http.StatusConflict, "MUST_EXCEED_HIGHEST", "Bid must be higher than the current highest offer")
	ErrPropertyNotLive   = NewAppError(http.StatusConflict, "PROPERTY_NOT_LIVE", "Property is not live for bidding")
	ErrInvalidBidAmount  = NewAppError(http.StatusBadRequest, "VALIDATION", "Bid amount must be a positive number with at most two decimal places")
)

// Lookup and access failures. Cross-tenant and soft-deleted entities
// surface as 404, never 403, so existence does not leak across tenants.
var (
	ErrPropertyNotFound = NewAppError(http.StatusNotFound, "NOT_FOUND", "Property not found")
	ErrBidNotFound      = NewAppError(http.StatusNotFound, "NOT_FOUND", "Bid not found")
	ErrForbidden        = NewAppError(http.StatusForbidden, "FORBIDDEN", "Insufficient role permissions")
	ErrTenantMismatch   = NewAppError(http.StatusForbidden, "TENANT_MISMATCH", "Tenant header mismatch")
	ErrUnauthenticated  = NewAppError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
)

// ErrTxConflict is surfaced when a transaction keeps deadlocking after
// the recorder's bounded retries.
var ErrTxConflict = NewAppError(http.StatusConflict, "CONFLICT", "Concurrent update conflict, please retry")

func ErrInvalidStatusTransition(from, to PropertyStatus) *AppError {
	return NewAppError(http.StatusConflict, "INVALID_STATUS_TRANSITION",
		fmt.Sprintf("Invalid status transition from %s to %s", from, to))
}
