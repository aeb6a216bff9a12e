package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic-admin/internal/platform/auth"
)

// ErrorData is what the error page shows.
type ErrorData struct {
	Code    int
	Heading string
	Message string
}

// ErrorHandler renders errors as the error page, or as JSON for script
// callers. It replaces echo's default handler.
func ErrorHandler(views *Views, logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			c.NoContent(code)
			return
		}
		if auth.WantsJSON(c.Request()) {
			c.JSON(code, map[string]string{"error": msg})
			return
		}

		data := ErrorData{Code: code, Heading: heading(code), Message: msg}
		if rerr := views.Render(c, code, "error", Page{Title: data.Heading, Data: data}); rerr != nil {
			logger.Error().Err(rerr).Msg("failed to render error page")
			c.String(code, msg)
		}
	}
}

func heading(code int) string {
	switch code {
	case http.StatusNotFound:
		return "Not found"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "Access denied"
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "Clinic API unavailable"
	}
	if code >= 500 {
		return "Something went wrong"
	}
	return http.StatusText(code)
}
