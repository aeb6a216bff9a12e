package prescription

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

const basePath = "/" + clinicmodels.ResourcePrescriptions

type Handler struct {
	svc    *Service
	views  *web.Views
	forms  *web.Forms
	logger zerolog.Logger
}

func NewHandler(svc *Service, views *web.Views, forms *web.Forms, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, views: views, forms: forms, logger: logger.With().Str("resource", clinicmodels.ResourcePrescriptions).Logger()}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET(basePath, h.List)
	g.GET(basePath+"/create", h.New)
	g.POST(basePath, h.Create)
	g.GET(basePath+"/:id", h.Show)
	g.GET(basePath+"/:id/edit", h.Edit)
	g.POST(basePath+"/:id", h.Update)
	g.POST(basePath+"/:id/delete", web.DeleteHandler(h.svc, "Prescription", basePath, h.views.Flash(), h.logger))
}

type ListData struct {
	Rows  []clinicmodels.Prescription
	Stats []web.Stat
	Pager web.Pager
}

type FormData struct {
	web.Form[Draft]
	Options
}

func (h *Handler) List(c echo.Context) error {
	rxs, stats, err := h.svc.List(c.Request().Context())
	status := http.StatusOK
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch prescriptions")
		h.views.Flash().Error(c, "Failed to fetch prescriptions: "+apiclient.Message(err))
		status = web.UpstreamStatus(err)
	}

	pg := pagination.Slice(rxs, pagination.FromContext(c))
	return h.views.Render(c, status, "prescriptions_list", web.Page{
		Title: "Prescriptions",
		Nav:   clinicmodels.ResourcePrescriptions,
		Data: ListData{
			Rows: pg.Items,
			Stats: []web.Stat{
				{Label: "Total Prescriptions", Value: stats.Total},
				{Label: "Active", Value: stats.Active},
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
		h.logger.Warn().Err(err).Int64("id", id).Msg("prescription detail unavailable")
		return echo.NewHTTPError(http.StatusNotFound, "Prescription not found")
	}
	return h.views.Render(c, http.StatusOK, "prescriptions_detail", web.Page{
		Title: detail.Prescription.Medication,
		Nav:   clinicmodels.ResourcePrescriptions,
		Data:  detail,
	})
}

func (h *Handler) New(c echo.Context) error {
	form := newForm()
	if pid, err := web.ParseQueryID(c, "patient_id"); err == nil {
		form.Draft.PatientID = pid
	}
	return h.renderForm(c, http.StatusOK, form)
}

func (h *Handler) Create(c echo.Context) error {
	form := newForm()
	if err := h.forms.Bind(c, &form.Draft); err != nil {
		return h.fail(c, form, err)
	}
	created, err := h.svc.Create(c.Request().Context(), form.Draft)
	if err != nil {
		return h.fail(c, form, err)
	}
	h.logger.Info().Int64("id", created.ID).Msg("prescription created")
	h.views.Flash().Success(c, "Prescription created successfully!")
	return c.Redirect(http.StatusSeeOther, basePath)
}

func (h *Handler) Edit(c echo.Context) error {
	id, err := web.ParseID(c)
	if err != nil {
		return err
	}
	rx, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		h.logger.Warn().Err(err).Int64("id", id).Msg("failed to load prescription for editing")
		return echo.NewHTTPError(http.StatusNotFound, "Prescription not found")
	}
	return h.renderForm(c, http.StatusOK, editForm(id, DraftFrom(rx, h.views.Location())))
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
	h.views.Flash().Success(c, "Prescription updated successfully!")
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("%s/%d", basePath, id))
}

func newForm() FormData {
	return FormData{Form: web.Form[Draft]{Action: basePath, Cancel: basePath}}
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
	h.logger.Info().Err(err).Msg("prescription form rejected")
	h.views.Flash().Error(c, web.FailureMessage(err))
	return h.renderForm(c, http.StatusUnprocessableEntity, form)
}

func (h *Handler) renderForm(c echo.Context, status int, form FormData) error {
	opts, err := h.svc.Options(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load prescription form options")
		h.views.Flash().Error(c, "Failed to load form options: "+apiclient.Message(err))
	}
	form.Options = opts
	form.Token = h.forms.Token()

	title := "Add Prescription"
	if form.Editing {
		title = "Edit Prescription"
	}
	return h.views.Render(c, status, "prescriptions_form", web.Page{Title: title, Nav: clinicmodels.ResourcePrescriptions, Data: form})
}
