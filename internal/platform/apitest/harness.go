package apitest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic-admin/internal/platform/apiclient"
	"github.com/clinic/clinic-admin/internal/platform/auth"
	"github.com/clinic/clinic-admin/internal/platform/notify"
	"github.com/clinic/clinic-admin/internal/platform/session"
	"github.com/clinic/clinic-admin/internal/platform/submit"
	"github.com/clinic/clinic-admin/internal/platform/web"
)

// Harness is a console wired the way the server wires it, in front of a
// fake API: guard, renderer, validator, session and flash.
type Harness struct {
	API     *Server
	Client  *apiclient.Client
	Echo    *echo.Echo
	Views   *web.Views
	Forms   *web.Forms
	Flash   *notify.Flash
	Session *session.Store
	Storage *session.MemoryStorage
	Logger  zerolog.Logger
}

// NewHarness builds a console; signedIn seeds a session token.
func NewHarness(t testing.TB, signedIn bool) *Harness {
	t.Helper()
	api := New(t)
	client := api.Client(t)

	storage := session.NewMemoryStorage()
	if signedIn {
		storage.Set(context.Background(), session.KeyToken, "test-token")
		storage.Set(context.Background(), session.KeyUser, `{"id":1,"email":"admin@clinic.test","first_name":"Admin"}`)
	}
	store := session.NewStore(storage, client, zerolog.Nop())
	store.Subscribe(client.SetBearerToken)
	store.Restore(context.Background())

	renderer, err := web.NewRenderer(time.UTC)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	flash := notify.New(false)
	views := web.NewViews(store, flash, time.UTC)

	e := echo.New()
	e.Renderer = renderer
	e.Validator = web.NewValidator()
	e.HTTPErrorHandler = web.ErrorHandler(views, zerolog.Nop())
	e.Use(auth.RequireSession(store, auth.GuardConfig{
		OnDenied: func(c echo.Context) { flash.Info(c, "Please sign in to continue.") },
	}))

	return &Harness{
		API:     api,
		Client:  client,
		Echo:    e,
		Views:   views,
		Forms:   web.NewForms(submit.NewGuard(time.Minute)),
		Flash:   flash,
		Session: store,
		Storage: storage,
		Logger:  zerolog.Nop(),
	}
}

// Get performs a browser navigation.
func (h *Harness) Get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// Post submits form values. A fresh one-time token is added unless the
// values already carry one.
func (h *Harness) Post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if _, ok := form[submit.FieldName]; !ok {
		form.Set(submit.FieldName, h.Forms.Token())
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	h.Echo.ServeHTTP(rec, req)
	return rec
}

// Script sends a POST the way the page script does.
func (h *Harness) Script(path string) *httptest.ResponseRecorder {
	return h.ScriptForm(path, nil)
}

// ScriptForm is Script with form values, such as the ids a list shows.
func (h *Harness) ScriptForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("X-Requested-With", "fetch")
	rec := httptest.NewRecorder()
	h.Echo.ServeHTTP(rec, req)
	return rec
}
