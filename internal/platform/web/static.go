package web

import (
	"io/fs"

	"github.com/labstack/echo/v4"
)

// RegisterStatic serves the embedded assets under /static.
func RegisterStatic(e *echo.Echo) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	e.StaticFS("/static", sub)
}
