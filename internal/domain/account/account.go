// Package account serves the sign-in page, registration and sign-out.
package account

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic-admin/internal/platform/apiclient"
	"github.com/clinic/clinic-admin/internal/platform/web"
)

// RegisterPath is the API's account creation endpoint.
const RegisterPath = "/register"

// Session is the part of the session store the pages drive.
type Session interface {
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context)
	HasToken() bool
}

// Poster sends the registration.
type Poster interface {
	Post(ctx context.Context, path string, body, out any, opts ...apiclient.RequestOption) error
}

// Credentials is the sign-in form.
type Credentials struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Registration is the sign-up form and the body sent to the API.
type Registration struct {
	FirstName string `form:"first_name" json:"first_name" validate:"required"`
	LastName  string `form:"last_name" json:"last_name" validate:"required"`
	Email     string `form:"email" json:"email" validate:"required"`
	Password  string `form:"password" json:"password" validate:"required"`
}

// HomeData feeds the sign-in form shown on the home page.
type HomeData struct {
	Email string
}

type Handler struct {
	session Session
	api     Poster
	views   *web.Views
	forms   *web.Forms
	logger  zerolog.Logger
}

func NewHandler(session Session, api Poster, views *web.Views, forms *web.Forms, logger zerolog.Logger) *Handler {
	return &Handler{session: session, api: api, views: views, forms: forms, logger: logger}
}

// RegisterRoutes mounts the account pages. credentialMW wraps the two
// handlers that send credentials to the API.
func (h *Handler) RegisterRoutes(g *echo.Group, credentialMW ...echo.MiddlewareFunc) {
	g.GET("/", h.Home)
	g.POST("/login", h.Login, credentialMW...)
	g.GET("/register", h.RegisterForm)
	g.POST("/register", h.Register, credentialMW...)
	g.POST("/logout", h.Logout)
}

// Home is the dashboard when signed in and the sign-in form otherwise.
func (h *Handler) Home(c echo.Context) error {
	title := "Sign in"
	if h.session.HasToken() {
		title = "Dashboard"
	}
	return h.views.Render(c, http.StatusOK, "home", web.Page{Title: title, Nav: "dashboard", Data: HomeData{}})
}

func (h *Handler) Login(c echo.Context) error {
	var creds Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "the form could not be read")
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if err := c.Validate(&creds); err != nil {
		return h.loginFailed(c, creds.Email, http.StatusUnprocessableEntity, web.FailureMessage(err))
	}

	if err := h.session.SignIn(c.Request().Context(), creds.Email, creds.Password); err != nil {
		status := http.StatusUnauthorized
		if apiclient.IsTransport(err) {
			status = http.StatusBadGateway
		}
		return h.loginFailed(c, creds.Email, status, "Login failed: "+apiclient.Message(err))
	}
	h.views.Flash().Success(c, "Signed in successfully!")
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) loginFailed(c echo.Context, email string, status int, msg string) error {
	h.views.Flash().Error(c, msg)
	return h.views.Render(c, status, "home", web.Page{Title: "Sign in", Nav: "dashboard", Data: HomeData{Email: email}})
}

// RegisterData feeds the sign-up form. The password is never echoed back.
type RegisterData struct {
	Token string
	Draft Registration
}

func (h *Handler) RegisterForm(c echo.Context) error {
	return h.renderRegister(c, http.StatusOK, Registration{})
}

func (h *Handler) Register(c echo.Context) error {
	var reg Registration
	if err := h.forms.Bind(c, &reg); err != nil {
		if errors.Is(err, web.ErrDuplicateSubmit) {
			h.views.Flash().Info(c, "This form was already submitted.")
			return c.Redirect(http.StatusSeeOther, "/")
		}
		h.views.Flash().Error(c, "Registration failed: "+apiclient.Message(err))
		return h.renderRegister(c, http.StatusUnprocessableEntity, reg)
	}
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Email = strings.TrimSpace(reg.Email)

	if err := h.api.Post(c.Request().Context(), RegisterPath, reg, nil); err != nil {
		h.logger.Info().Str("email", reg.Email).Str("reason", apiclient.Message(err)).Msg("registration rejected")
		h.views.Flash().Error(c, "Registration failed: "+apiclient.Message(err))
		return h.renderRegister(c, web.UpstreamStatus(err), reg)
	}
	h.logger.Info().Str("email", reg.Email).Msg("account registered")
	h.views.Flash().Success(c, "Account created successfully! Please login.")
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) renderRegister(c echo.Context, status int, reg Registration) error {
	reg.Password = ""
	return h.views.Render(c, status, "register", web.Page{
		Title: "Register",
		Nav:   "register",
		Data:  RegisterData{Token: h.forms.Token(), Draft: reg},
	})
}

// Logout clears the session and returns to the sign-in page.
func (h *Handler) Logout(c echo.Context) error {
	h.session.SignOut(c.Request().Context())
	h.views.Flash().Success(c, "Signed out.")
	return c.Redirect(http.StatusSeeOther, "/")
}
