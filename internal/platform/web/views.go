package web

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic-admin/internal/platform/notify"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
	"github.com/clinic/clinic-admin/pkg/pagination"
)

// CSRFContextKey is where the CSRF middleware leaves the request's token.
const CSRFContextKey = "csrf"

// NavItem is one entry of the sidebar.
type NavItem struct {
	Key   string
	Label string
	Href  string
}

// Nav is the sidebar, in display order.
var Nav = []NavItem{
	{Key: "dashboard", Label: "Dashboard", Href: "/"},
	{Key: clinicmodels.ResourceDoctors, Label: "Doctors", Href: "/doctors"},
	{Key: clinicmodels.ResourcePatients, Label: "Patients", Href: "/patients"},
	{Key: clinicmodels.ResourceAppointments, Label: "Appointments", Href: "/appointments"},
	{Key: clinicmodels.ResourceDiagnoses, Label: "Diagnoses", Href: "/diagnoses"},
	{Key: clinicmodels.ResourcePrescriptions, Label: "Prescriptions", Href: "/prescriptions"},
	{Key: "register", Label: "Register", Href: "/register"},
}

// Page is what every template receives. Handlers set Title, Nav and Data;
// Views.Render fills in the rest.
type Page struct {
	Title string
	Nav   string
	Data  any

	Status     int
	User       *clinicmodels.User
	Authorized bool
	Flash      []notify.Message
	CSRF       string
	NavItems   []NavItem
}

// Session is the read side of the session store the shell needs.
type Session interface {
	HasToken() bool
	CurrentUser() *clinicmodels.User
}

// Views renders pages inside the navigation shell.
type Views struct {
	session Session
	flash   *notify.Flash
	loc     *time.Location
}

// NewViews returns Views showing dates in loc (nil means local time).
func NewViews(session Session, flash *notify.Flash, loc *time.Location) *Views {
	if loc == nil {
		loc = time.Local
	}
	return &Views{session: session, flash: flash, loc: loc}
}

// Flash returns the notifier pages pop their messages from.
func (v *Views) Flash() *notify.Flash { return v.flash }

// Location is the time zone dates are shown and pre-filled in.
func (v *Views) Location() *time.Location { return v.loc }

// Render renders the named page with status.
func (v *Views) Render(c echo.Context, status int, name string, p Page) error {
	p.Status = status
	p.Authorized = v.session.HasToken()
	p.User = v.session.CurrentUser()
	p.Flash = v.flash.Pop(c)
	p.CSRF, _ = c.Get(CSRFContextKey).(string)
	p.NavItems = Nav
	return c.Render(status, name, p)
}

// Stat is one figure of a list's overview panel.
type Stat struct {
	Label string
	Value int
}

// Pager is the navigation under a paged table.
type Pager struct {
	From, To, Total int
	Prev, Next      string
}

// NewPager builds the pager for pg, linking to basePath.
func NewPager[T any](pg pagination.Page[T], basePath string) Pager {
	p := Pager{From: pg.From(), To: pg.To(), Total: pg.Total}
	if pg.HasPrevious() {
		p.Prev = pg.PreviousURL(basePath)
	}
	if pg.HasNext() {
		p.Next = pg.NextURL(basePath)
	}
	return p
}

// Form is what every create/edit template receives besides its options.
type Form[D any] struct {
	Editing bool
	ID      int64
	Action  string
	Cancel  string
	Token   string
	Draft   D
}
