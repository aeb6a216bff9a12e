package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic-admin/internal/platform/apiclient"
	"github.com/clinic/clinic-admin/internal/platform/dates"
	"github.com/clinic/clinic-admin/internal/platform/notify"
	"github.com/clinic/clinic-admin/internal/platform/submit"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
	"github.com/clinic/clinic-admin/pkg/pagination"
)

type fakeSession struct {
	token bool
	user  *clinicmodels.User
}

func (f fakeSession) HasToken() bool                  { return f.token }
func (f fakeSession) CurrentUser() *clinicmodels.User { return f.user }

func newTestEcho(t *testing.T, sess Session) (*echo.Echo, *Views) {
	t.Helper()
	r, err := NewRenderer(time.UTC)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	e := echo.New()
	e.Renderer = r
	e.Validator = NewValidator()
	views := NewViews(sess, notify.New(false), time.UTC)
	e.HTTPErrorHandler = ErrorHandler(views, zerolog.Nop())
	return e, views
}

func TestRenderer_ParsesEveryPage(t *testing.T) {
	r, err := NewRenderer(nil)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	for _, name := range []string{
		"home", "register", "error",
		"doctors_list", "doctors_detail", "doctors_form",
		"patients_list", "patients_detail", "patients_form",
		"appointments_list", "appointments_detail", "appointments_form",
		"diagnoses_list", "diagnoses_detail", "diagnoses_form",
		"prescriptions_list", "prescriptions_detail", "prescriptions_form",
	} {
		if !r.Has(name) {
			t.Errorf("missing page %s", name)
		}
	}
	if r.Has("layout") || r.Has("partials") {
		t.Error("base templates must not be pages")
	}
}

func TestViews_RenderListInShell(t *testing.T) {
	user := &clinicmodels.User{FirstName: "Grace", LastName: "Hopper"}
	e, views := newTestEcho(t, fakeSession{token: true, user: user})

	rows := []clinicmodels.Doctor{{ID: 5, FirstName: "Ada", LastName: "Lovelace", Specialisation: "Cardiology"}}
	pg := pagination.Slice(rows, pagination.Params{Limit: 25})
	data := struct {
		Rows  []clinicmodels.Doctor
		Stats []Stat
		Pager Pager
	}{pg.Items, []Stat{{Label: "Total doctors", Value: 1}}, NewPager(pg, "/doctors")}

	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(CSRFContextKey, "csrf-123")
	views.Flash().Success(c, "Doctor created successfully!")

	if err := views.Render(c, http.StatusOK, "doctors_list", Page{Title: "Doctors", Nav: clinicmodels.ResourceDoctors, Data: data}); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Ada Lovelace",
		"Cardiology",
		"Grace Hopper",
		`href="/doctors" class="active"`,
		`action="/doctors/5/delete"`,
		`value="csrf-123"`,
		"Doctor created successfully!",
		"Total doctors",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestViews_SignedOutHidesRowActions(t *testing.T) {
	e, views := newTestEcho(t, fakeSession{})
	data := struct {
		Rows  []clinicmodels.Doctor
		Stats []Stat
		Pager Pager
	}{Rows: []clinicmodels.Doctor{{ID: 5, FirstName: "Ada"}}}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/doctors", nil), rec)
	if err := views.Render(c, http.StatusOK, "doctors_list", Page{Title: "Doctors", Data: data}); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := rec.Body.String()
	if strings.Contains(body, "/doctors/5/edit") || strings.Contains(body, "/doctors/5/delete") {
		t.Error("row actions must be hidden without a session")
	}
	if strings.Contains(body, "Sign out") {
		t.Error("sign-out button must be hidden without a session")
	}
}

func TestRenderer_FormatsDatesInLocation(t *testing.T) {
	e, views := newTestEcho(t, fakeSession{token: true})
	data := struct {
		Appointment clinicmodels.Appointment
		Doctor      clinicmodels.Doctor
		Patient     clinicmodels.Patient
	}{
		Appointment: clinicmodels.Appointment{ID: 1, AppointmentDate: dates.FromInt(1735119000)},
		Doctor:      clinicmodels.Doctor{ID: 2, FirstName: "Ada"},
		Patient:     clinicmodels.Patient{ID: 3, FirstName: "Alan", DateOfBirth: dates.FromString("1990-01-05")},
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/appointments/1", nil), rec)
	if err := views.Render(c, http.StatusOK, "appointments_detail", Page{Title: "Appointment", Data: data}); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := rec.Body.String()
	for _, want := range []string{"25/12/2024", "09:30", "05/01/1990"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in body", want)
		}
	}
}

func TestErrorHandler_NotFoundPage(t *testing.T) {
	e, _ := newTestEcho(t, fakeSession{token: true})
	e.GET("/appointments/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/9", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Appointment not found") || !strings.Contains(rec.Body.String(), "Not found") {
		t.Errorf("expected not-found page, got %s", rec.Body.String())
	}
}

func TestErrorHandler_JSONForScripts(t *testing.T) {
	e, _ := newTestEcho(t, fakeSession{})
	e.GET("/boom", func(c echo.Context) error { return errors.New("kaput") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("expected JSON error body, got %s", rec.Body.String())
	}
}

type draft struct {
	FirstName string `form:"first_name" validate:"required"`
	DoctorID  int64  `form:"doctor_id" validate:"required"`
}

func TestValidator_FieldNames(t *testing.T) {
	err := NewValidator().Validate(&draft{})
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fe.Message != "first_name is required, doctor_id is required" {
		t.Errorf("unexpected message %q", fe.Message)
	}
	if NewValidator().Validate(&draft{FirstName: "Ada", DoctorID: 2}) != nil {
		t.Error("expected valid draft")
	}
}

func postForm(e *echo.Echo, path string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestForms_BindOnce(t *testing.T) {
	e, _ := newTestEcho(t, fakeSession{token: true})
	forms := NewForms(submit.NewGuard(time.Minute))
	token := forms.Token()
	values := url.Values{"first_name": {"Ada"}, "doctor_id": {"4"}, submit.FieldName: {token}}

	c, _ := postForm(e, "/x", values)
	var d draft
	if err := forms.Bind(c, &d); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if d.FirstName != "Ada" || d.DoctorID != 4 {
		t.Errorf("unexpected draft %+v", d)
	}

	c, _ = postForm(e, "/x", values)
	if err := forms.Bind(c, &draft{}); !errors.Is(err, ErrDuplicateSubmit) {
		t.Errorf("expected duplicate submit, got %v", err)
	}
}

func TestForms_BindValidationFailure(t *testing.T) {
	e, _ := newTestEcho(t, fakeSession{token: true})
	forms := NewForms(submit.NewGuard(time.Minute))
	c, _ := postForm(e, "/x", url.Values{"first_name": {"Ada"}, submit.FieldName: {forms.Token()}})

	var d draft
	err := forms.Bind(c, &d)
	if got := FailureMessage(err); got != "Validation failed: doctor_id is required" {
		t.Errorf("unexpected message %q", got)
	}
	if d.FirstName != "Ada" {
		t.Error("draft must stay bound on validation failure")
	}
}

func TestFailureMessage(t *testing.T) {
	apiErr := &apiclient.Error{Status: 400, Message: "email already taken"}
	if got := FailureMessage(apiErr); got != "Validation failed: email already taken" {
		t.Errorf("unexpected %q", got)
	}
	transport := &apiclient.Error{Message: "Could not reach the clinic API"}
	if got := FailureMessage(transport); got != "Could not reach the clinic API" {
		t.Errorf("unexpected %q", got)
	}
}

func TestParseID(t *testing.T) {
	e := echo.New()
	for _, tc := range []struct {
		raw  string
		want int64
		ok   bool
	}{{"7", 7, true}, {"0", 0, false}, {"-3", 0, false}, {"abc", 0, false}} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(tc.raw)
		id, err := ParseID(c)
		if (err == nil) != tc.ok || id != tc.want {
			t.Errorf("ParseID(%q) = %d, %v", tc.raw, id, err)
		}
	}
}

type recordingDeleter struct {
	ids []int64
	err error
}

func (r *recordingDeleter) Delete(_ context.Context, id int64) error {
	r.ids = append(r.ids, id)
	return r.err
}

func deleteContext(e *echo.Echo, id string, script bool) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/doctors/"+id+"/delete", nil)
	if script {
		req.Header.Set("X-Requested-With", "fetch")
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestDeleteHandler_Script(t *testing.T) {
	e := echo.New()
	d := &recordingDeleter{}
	h := DeleteHandler(d, "Doctor", "/doctors", notify.New(false), zerolog.Nop())

	c, rec := deleteContext(e, "7", true)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(d.ids) != 1 || d.ids[0] != 7 {
		t.Errorf("expected delete of 7, got %v", d.ids)
	}
}

func TestDeleteHandler_ScriptReturnsRemainingRows(t *testing.T) {
	e := echo.New()
	d := &recordingDeleter{}
	h := DeleteHandler(d, "Doctor", "/doctors", notify.New(false), zerolog.Nop())

	form := url.Values{ShownField: {"5,7,9"}}
	req := httptest.NewRequest(http.MethodPost, "/doctors/7/delete", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("X-Requested-With", "fetch")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"remaining":[5,9]}` {
		t.Errorf("expected [5 9] remaining, got %s", got)
	}
	if len(d.ids) != 1 {
		t.Errorf("expected one delete, got %v", d.ids)
	}
}

func TestDeleteHandler_ScriptFailureKeepsRows(t *testing.T) {
	e := echo.New()
	d := &recordingDeleter{err: &apiclient.Error{Status: http.StatusConflict, Message: "doctor has appointments"}}
	h := DeleteHandler(d, "Doctor", "/doctors", notify.New(false), zerolog.Nop())

	form := url.Values{ShownField: {"5,7,9"}}
	req := httptest.NewRequest(http.MethodPost, "/doctors/7/delete", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set("X-Requested-With", "fetch")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("7")

	var he *echo.HTTPError
	if err := h(c); !errors.As(err, &he) || he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestStaticScript_DetailDeleteReturnsToList(t *testing.T) {
	e := echo.New()
	RegisterStatic(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	js := rec.Body.String()
	if strings.Contains(js, "location.reload") {
		t.Error("a deleted record must not be reloaded")
	}
	for _, want := range []string{`body.set("shown"`, `replace(/\/\d+\/delete$/, "")`} {
		if !strings.Contains(js, want) {
			t.Errorf("expected %q in app.js", want)
		}
	}
}

func TestDeleteHandler_FormPostRedirects(t *testing.T) {
	e := echo.New()
	h := DeleteHandler(&recordingDeleter{}, "Doctor", "/doctors", notify.New(false), zerolog.Nop())

	c, rec := deleteContext(e, "7", false)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/doctors" {
		t.Errorf("expected redirect to /doctors, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
}

func TestDeleteHandler_Failure(t *testing.T) {
	e := echo.New()
	d := &recordingDeleter{err: &apiclient.Error{Status: http.StatusForbidden, Message: "not allowed"}}
	h := DeleteHandler(d, "Doctor", "/doctors", notify.New(false), zerolog.Nop())

	c, _ := deleteContext(e, "7", true)
	err := h(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusForbidden || he.Message != "not allowed" {
		t.Errorf("expected 403 not allowed, got %v", err)
	}

	d.err = &apiclient.Error{Message: "Could not reach the clinic API"}
	c, _ = deleteContext(e, "7", true)
	if err := h(c); !errors.As(err, &he) || he.Code != http.StatusBadGateway {
		t.Errorf("expected 502 on transport failure, got %v", err)
	}
}
