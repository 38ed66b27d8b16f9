package middleware

import (
	"github.com/DavidCLumin/estate-agent-crm/internal/domain"

	"github.com/labstack/echo/v4"
)

// Identity is the caller as asserted by the upstream auth gateway. The
// gateway terminates the session and forwards these headers; this
// service trusts them as given.
type Identity struct {
	UserID   string
	Role     domain.Role
	TenantID string
	Email    string
}

const identityContextKey = "identity"

// Headers set by the auth gateway (trusted) and by the client (tenant
// selection, validated against the identity).
const (
	headerUserID     = "X-User-Id"
	headerUserRole   = "X-User-Role"
	headerUserTenant = "X-User-Tenant"
	headerUserEmail  = "X-User-Email"
	headerTenantID   = "X-Tenant-Id"
)

// RequireIdentity extracts the caller identity and resolves the
// effective tenant. SUPER_ADMIN may select any tenant via X-Tenant-Id;
// for everyone else a mismatching tenant selection is a 403 and the
// identity's own tenant always wins.
func RequireIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header
			userID := header.Get(headerUserID)
			role := domain.Role(header.Get(headerUserRole))
			if userID == "" || role == "" {
				return domain.ErrUnauthenticated
			}
			switch role {
			case domain.RoleSuperAdmin, domain.RoleTenantAdmin, domain.RoleAgent, domain.RoleBuyer:
			default:
				return domain.ErrUnauthenticated
			}

			identityTenant := header.Get(headerUserTenant)
			selectedTenant := header.Get(headerTenantID)

			tenantID := identityTenant
			if role == domain.RoleSuperAdmin {
				if selectedTenant != "" {
					tenantID = selectedTenant
				}
			} else if selectedTenant != "" && selectedTenant != identityTenant {
				return domain.ErrTenantMismatch
			}
			if tenantID == "" {
				return domain.ErrUnauthenticated
			}

			c.Set(identityContextKey, &Identity{
				UserID:   userID,
				Role:     role,
				TenantID: tenantID,
				Email:    header.Get(headerUserEmail),
			})
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by RequireIdentity.
func IdentityFrom(c echo.Context) *Identity {
	identity, _ := c.Get(identityContextKey).(*Identity)
	return identity
}

// RequireRole rejects callers whose role is not in the allowed set.
func RequireRole(identity *Identity, allowed ...domain.Role) error {
	for _, role := range allowed {
		if identity.Role == role {
			return nil
		}
	}
	return domain.ErrForbidden
}
