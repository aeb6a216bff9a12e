package patient

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

const basePath = "/" + clinicmodels.ResourcePatients

type Handler struct {
	svc    *Service
	views  *web.Views
	forms  *web.Forms
	logger zerolog.Logger
}

func NewHandler(svc *Service, views *web.Views, forms *web.Forms, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, views: views, forms: forms, logger: logger.With().Str("resource", clinicmodels.ResourcePatients).Logger()}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET(basePath, h.List)
	g.GET(basePath+"/create", h.New)
	g.POST(basePath, h.Create)
	g.GET(basePath+"/:id", h.Show)
	g.GET(basePath+"/:id/edit", h.Edit)
	g.POST(basePath+"/:id", h.Update)
	g.POST(basePath+"/:id/delete", web.DeleteHandler(h.svc, "Patient", basePath, h.views.Flash(), h.logger))
}

type ListData struct {
	Rows  []clinicmodels.Patient
	Stats []web.Stat
	Pager web.Pager
}

type FormData = web.Form[Draft]

func (h *Handler) List(c echo.Context) error {
	patients, stats, err := h.svc.List(c.Request().Context())
	status := http.StatusOK
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch patients")
		h.views.Flash().Error(c, "Failed to fetch patients: "+apiclient.Message(err))
		status = web.UpstreamStatus(err)
	}

	pg := pagination.Slice(patients, pagination.FromContext(c))
	return h.views.Render(c, status, "patients_list", web.Page{
		Title: "Patients",
		Nav:   clinicmodels.ResourcePatients,
		Data: ListData{
			Rows: pg.Items,
			Stats: []web.Stat{
				{Label: "Total Patients", Value: stats.Total},
				{Label: "With Email", Value: stats.WithEmail},
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
		h.logger.Warn().Err(err).Int64("id", id).Msg("patient detail unavailable")
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	return h.views.Render(c, http.StatusOK, "patients_detail", web.Page{
		Title: detail.Patient.FullName(),
		Nav:   clinicmodels.ResourcePatients,
		Data:  detail,
	})
}

func (h *Handler) New(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, FormData{Action: basePath, Cancel: basePath})
}

func (h *Handler) Create(c echo.Context) error {
	form := FormData{Action: basePath, Cancel: basePath}
	if err := h.forms.Bind(c, &form.Draft); err != nil {
		return h.fail(c, form, err)
	}
	created, err := h.svc.Create(c.Request().Context(), form.Draft)
	if err != nil {
		return h.fail(c, form, err)
	}
	h.logger.Info().Int64("id", created.ID).Msg("patient created")
	h.views.Flash().Success(c, "Patient created successfully!")
	return c.Redirect(http.StatusSeeOther, basePath)
}

func (h *Handler) Edit(c echo.Context) error {
	id, err := web.ParseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		h.logger.Warn().Err(err).Int64("id", id).Msg("failed to load patient for editing")
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	return h.renderForm(c, http.StatusOK, editForm(id, DraftFrom(p, h.views.Location())))
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
	h.views.Flash().Success(c, "Patient updated successfully!")
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("%s/%d", basePath, id))
}

func editForm(id int64, d Draft) FormData {
	self := fmt.Sprintf("%s/%d", basePath, id)
	return FormData{Editing: true, ID: id, Action: self, Cancel: self, Draft: d}
}

func (h *Handler) fail(c echo.Context, form FormData, err error) error {
	if errors.Is(err, web.ErrDuplicateSubmit) {
		h.views.Flash().Info(c, "This form was already submitted.")
		return c.Redirect(http.StatusSeeOther, form.Cancel)
	}
	h.logger.Info().Err(err).Msg("patient form rejected")
	h.views.Flash().Error(c, web.FailureMessage(err))
	return h.renderForm(c, http.StatusUnprocessableEntity, form)
}

func (h *Handler) renderForm(c echo.Context, status int, form FormData) error {
	form.Token = h.forms.Token()
	title := "Add Patient"
	if form.Editing {
		title = "Edit Patient"
	}
	return h.views.Render(c, status, "patients_form", web.Page{Title: title, Nav: clinicmodels.ResourcePatients, Data: form})
}
