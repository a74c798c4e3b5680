package api

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dweeb/marketplace/internal/api/response"
)

// NewHTTPErrorHandler renders every error returned by a handler or middleware
// as the failure envelope. Errors outside the known taxonomy are logged with
// their cause; their message reaches the client only outside production.
func NewHTTPErrorHandler(log zerolog.Logger, opts response.Options) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body, unexpected := response.Resolve(err, opts)
		if unexpected {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("unhandled error")
		}

		if c.Request().Method == "HEAD" {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
