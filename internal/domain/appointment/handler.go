package appointment

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic-admin/internal/platform/apiclient"
	"github.com/clinic/clinic-admin/internal/platform/web"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
	"github.com/clinic/clinic-admin/pkg/pagination"
)

const basePath = "/" + clinicmodels.ResourceAppointments

type Handler struct {
	svc    *Service
	views  *web.Views
	forms  *web.Forms
	logger zerolog.Logger
}

func NewHandler(svc *Service, views *web.Views, forms *web.Forms, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, views: views, forms: forms, logger: logger.With().Str("resource", clinicmodels.ResourceAppointments).Logger()}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET(basePath, h.List)
	g.GET(basePath+"/create", h.New)
	g.POST(basePath, h.Create)
	g.GET(basePath+"/:id", h.Show)
	g.GET(basePath+"/:id/edit", h.Edit)
	g.POST(basePath+"/:id", h.Update)
	g.POST(basePath+"/:id/delete", web.DeleteHandler(h.svc, "Appointment", basePath, h.views.Flash(), h.logger))
}

type ListData struct {
	Rows  []clinicmodels.Appointment
	Stats []web.Stat
	Pager web.Pager
}

// FormData is the booking form with its doctor and patient choices.
type FormData struct {
	web.Form[Draft]
	Options
}

func (h *Handler) List(c echo.Context) error {
	appts, stats, err := h.svc.List(c.Request().Context())
	status := http.StatusOK
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch appointments")
		h.views.Flash().Error(c, "Failed to fetch appointments: "+apiclient.Message(err))
		status = web.UpstreamStatus(err)
	}

	pg := pagination.Slice(appts, pagination.FromContext(c))
	return h.views.Render(c, status, "appointments_list", web.Page{
		Title: "Appointments",
		Nav:   clinicmodels.ResourceAppointments,
		Data: ListData{
			Rows: pg.Items,
			Stats: []web.Stat{
				{Label: "Total Appointments", Value: stats.Total},
				{Label: "Upcoming", Value: stats.Upcoming},
			},
			Pager: web.NewPager(pg, basePath),
		},
	})
}

func (h *Handler) Show(c echo.Context) error {
	id, err := web.ParseID(c)
	if err != nil {
		return err
	}
	detail, err := h.svc.Detail(c.Request().Context(), id)
	if err != nil {
		h.logger.Warn().Err(err).Int64("id", id).Msg("appointment detail unavailable")
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	}
	return h.views.Render(c, http.StatusOK, "appointments_detail", web.Page{
		Title: fmt.Sprintf("Appointment #%d", id),
		Nav:   clinicmodels.ResourceAppointments,
		Data:  detail,
	})
}

func (h *Handler) New(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, newForm(Draft{}))
}

func (h *Handler) Create(c echo.Context) error {
	form := newForm(Draft{})
	if err := h.forms.Bind(c, &form.Draft); err != nil {
		return h.fail(c, form, err)
	}
	created, err := h.svc.Create(c.Request().Context(), form.Draft)
	if err != nil {
		return h.fail(c, form, err)
	}
	h.logger.Info().Int64("id", created.ID).Msg("appointment created")
	h.views.Flash().Success(c, "Appointment created!")
	return c.Redirect(http.StatusSeeOther, basePath)
}

func (h *Handler) Edit(c echo.Context) error {
	id, err := web.ParseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		h.logger.Warn().Err(err).Int64("id", id).Msg("failed to load appointment for editing")
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	}
	return h.renderForm(c, http.StatusOK, editForm(id, DraftFrom(a, h.views.Location())))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := web.ParseID(c)
	if err != nil {
		return err
	}
	form := editForm(id, Draft{})
	if err := h.forms.Bind(c, &form.Draft); err != nil {
		return h.fail(c, form, err)
	}
	if _, err := h.svc.Update(c.Request().Context(), id, form.Draft); err != nil {
		return h.fail(c, form, err)
	}
	h.views.Flash().Success(c, "Appointment updated successfully!")
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("%s/%d", basePath, id))
}

func newForm(d Draft) FormData {
	return FormData{Form: web.Form[Draft]{Action: basePath, Cancel: basePath, Draft: d}}
}

func editForm(id int64, d Draft) FormData {
	self := fmt.Sprintf("%s/%d", basePath, id)
	return FormData{Form: web.Form[Draft]{Editing: true, ID: id, Action: self, Cancel: self, Draft: d}}
}

func (h *Handler) fail(c echo.Context, form FormData, err error) error {
	if errors.Is(err, web.ErrDuplicateSubmit) {
		h.views.Flash().Info(c, "This form was already submitted.")
		return c.Redirect(http.StatusSeeOther, form.Cancel)
	}
	h.logger.Info().Err(err).Msg("appointment form rejected")
	h.views.Flash().Error(c, web.FailureMessage(err))
	return h.renderForm(c, http.StatusUnprocessableEntity, form)
}

// renderForm loads the choices and shows the form. Without choices the form
// is still shown so the draft is not lost.
func (h *Handler) renderForm(c echo.Context, status int, form FormData) error {
	opts, err := h.svc.Options(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load appointment form options")
		h.views.Flash().Error(c, "Failed to load doctors and patients: "+apiclient.Message(err))
	}
	form.Options = opts
	form.Token = h.forms.Token()

	title := "Book Appointment"
	if form.Editing {
		title = "Edit Appointment"
	}
	return h.views.Render(c, status, "appointments_form", web.Page{Title: title, Nav: clinicmodels.ResourceAppointments, Data: form})
}
