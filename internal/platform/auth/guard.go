// Package auth holds the route guard that keeps protected views behind a
// session token.
package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TokenSource reports whether a session token is present. *session.Store
// implements it.
type TokenSource interface {
	HasToken() bool
}

// State is the guard's view of the session.
type State int

const (
	StateUnauthorized State = iota
	StateAuthorized
)

func (s State) String() string {
	if s == StateAuthorized {
		return "authorized"
	}
	return "unauthorized"
}

// StateKey is the echo context key the guard stores the State under.
const StateKey = "auth_state"

// GuardState derives the state from token presence alone. The token is never
// verified here; the API rejects a bad one.
func GuardState(src TokenSource) State {
	if src.HasToken() {
		return StateAuthorized
	}
	return StateUnauthorized
}

// GuardConfig configures RequireSession.
type GuardConfig struct {
	// Skipper selects requests that need no session. Defaults to PublicSkipper.
	Skipper func(c echo.Context) bool
	// RedirectTo is the public entry point. Defaults to "/".
	RedirectTo string
	// OnDenied runs before the redirect, e.g. to queue a notice.
	OnDenied func(c echo.Context)
}

// RequireSession redirects unauthorized navigation to the entry point with
// 303 See Other. Script and JSON callers get 401 instead of a redirect. The
// state is re-derived on every request, so a sign-out takes effect on the
// next navigation.
func RequireSession(src TokenSource, cfg GuardConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = PublicSkipper
	}
	if cfg.RedirectTo == "" {
		cfg.RedirectTo = "/"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := GuardState(src)
			c.Set(StateKey, state)
			if state == StateAuthorized || cfg.Skipper(c) {
				return next(c)
			}
			if WantsJSON(c.Request()) {
				return echo.NewHTTPError(http.StatusUnauthorized, "sign in required")
			}
			if cfg.OnDenied != nil {
				cfg.OnDenied(c)
			}
			return c.Redirect(http.StatusSeeOther, cfg.RedirectTo)
		}
	}
}

// StateFrom returns the state the guard recorded for this request.
func StateFrom(c echo.Context) State {
	s, _ := c.Get(StateKey).(State)
	return s
}

// WantsJSON reports whether the caller is a script rather than a browser
// navigation.
func WantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "fetch" {
		return true
	}
	return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
