package api

import (
	"net/http"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHTTPErrorHandler maps domain rejections to their HTTP status with a
// stable machine-readable code. Anything unrecognized is a 500 and gets
// logged with its real cause; the response stays generic.
func NewHTTPErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errorResponse{Error: "Internal server error", Code: "INTERNAL"}

		if appErr, ok := domain.AsAppError(err); ok {
			status = appErr.Status
			body = errorResponse{Error: appErr.Message, Code: appErr.Code}
		} else if httpErr, ok := err.(*echo.HTTPError); ok {
			status = httpErr.Code
			body = errorResponse{Error: http.StatusText(httpErr.Code), Code: "HTTP_ERROR"}
			if msg, ok := httpErr.Message.(string); ok {
				body.Error = msg
			}
		} else {
			log.Error("Unhandled error", "method", c.Request().Method, "path", c.Path(), "error", err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
