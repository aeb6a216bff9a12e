package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// publicPaths lists the routes reachable without a session: the entry point
// and account pages, health checks and assets. Keys are echo route patterns
// as returned by c.Path().
var publicPaths = map[string]bool{
	"/":          true,
	"/login":     true,
	"/register":  true,
	"/logout":    true,
	"/health":    true,
	"/health/db": true,
	"/static/*":  true,
}

// publicListings can be read without a session; creating a record through
// the same route still needs one.
var publicListings = map[string]bool{
	"/doctors":  true,
	"/patients": true,
}

// PublicSkipper returns true for requests whose route needs no session.
// Requests that matched no route are skipped too so they reach the 404
// handler instead of the sign-in redirect.
func PublicSkipper(c echo.Context) bool {
	p := c.Path()
	if p == "" || publicPaths[p] {
		return true
	}
	if publicListings[p] {
		m := c.Request().Method
		return m == http.MethodGet || m == http.MethodHead
	}
	return false
}
