// Package web renders the console's pages: the navigation shell, the
// per-view templates, static assets and error pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic-admin/internal/platform/dates"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// base templates every page is parsed together with
var baseTemplates = []string{"templates/layout.html", "templates/partials.html"}

// Renderer implements echo.Renderer over the embedded templates. Each page
// is parsed into its own set so the pages can all define "content".
type Renderer struct {
	pages map[string]*template.Template
	loc   *time.Location
}

// NewRenderer parses every page template. Dates are shown in loc.
func NewRenderer(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.Local
	}
	r := &Renderer{pages: make(map[string]*template.Template), loc: loc}

	base, err := template.New("layout").Funcs(r.funcs()).ParseFS(templateFS, baseTemplates...)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	for _, entry := range entries {
		if isBase(entry) {
			continue
		}
		page, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := page.ParseFS(templateFS, entry); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry, err)
		}
		r.pages[strings.TrimSuffix(path.Base(entry), ".html")] = page
	}
	return r, nil
}

func isBase(name string) bool {
	for _, b := range baseTemplates {
		if b == name {
			return true
		}
	}
	return false
}

// Render executes the layout of the named page.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	page, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return page.ExecuteTemplate(w, "layout", data)
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate":  func(v dates.Value) string { return dates.FormatDate(v, r.loc) },
		"formatTime":  func(v dates.Value) string { return dates.FormatTime(v, r.loc) },
		"formatInput": func(v dates.Value) string { return dates.FormatForInput(v, r.loc) },
		"orDash": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return "-"
			}
			return s
		},
		"selected": func(a, b int64) bool { return a == b },
		"deleteButton": func(action, label, csrf string) DeleteButton {
			return DeleteButton{Action: action, Label: label, CSRF: csrf}
		},
	}
}

// DeleteButton feeds the "delete" partial.
type DeleteButton struct {
	Action string
	Label  string
	CSRF   string
}
