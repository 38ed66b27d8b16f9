package api

import (
	"net/http"
	"time"

	"github.com/DavidCLumin/estate-agent-crm/internal/api/handlers"
	apimw "github.com/DavidCLumin/estate-agent-crm/internal/api/middleware"
	"github.com/DavidCLumin/estate-agent-crm/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes wires the API surface. Everything except the health
// check requires a resolved identity.
func RegisterRoutes(
	e *echo.Echo,
	properties *handlers.PropertyHandler,
	bids *handlers.BidHandler,
	audit *handlers.AuditHandler,
	feed *handlers.WebSocketHandler,
	biddingCfg config.BiddingConfig,
) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	authed := e.Group("", apimw.RequireIdentity())

	authed.GET("/properties", properties.List)
	authed.POST("/properties", properties.Create)
	authed.GET("/properties/:id", properties.Get)
	authed.PUT("/properties/:id", properties.Update)
	authed.DELETE("/properties/:id", properties.Delete)
	authed.POST("/properties/:id/publish", properties.Publish)

	// Bid submission is rate limited per caller, mirroring an upstream
	// per-user allowance rather than a global one.
	authed.POST("/properties/:id/bids", bids.SubmitBid, newBidRateLimiter(biddingCfg))
	authed.GET("/properties/:id/bids", bids.GetBids)
	authed.GET("/properties/:id/bids/:bidId/verify", bids.VerifyBid)

	authed.POST("/properties/:id/close-bidding", properties.CloseBidding)
	authed.POST("/properties/:id/accept-offer/:bidId", properties.AcceptOffer)

	authed.GET("/audit", audit.List)
	authed.GET("/ws/properties/:id", feed.Watch)
}

func newBidRateLimiter(cfg config.BiddingConfig) echo.MiddlewareFunc {
	expiresIn := cfg.RateExpiresIn
	if expiresIn <= 0 {
		expiresIn = time.Minute
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RateLimit),
			Burst:     cfg.RateBurst,
			ExpiresIn: expiresIn,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if identity := apimw.IdentityFrom(c); identity != nil {
				return identity.UserID, nil
			}
			return c.RealIP(), nil
		},
	})
}
