package diagnosis

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

const basePath = "/" + clinicmodels.ResourceDiagnoses

type Handler struct {
	svc    *Service
	views  *web.Views
	forms  *web.Forms
	logger zerolog.Logger
}

func NewHandler(svc *Service, views *web.Views, forms *web.Forms, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, views: views, forms: forms, logger: logger.With().Str("resource", clinicmodels.ResourceDiagnoses).Logger()}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET(basePath, h.List)
	g.GET(basePath+"/create", h.New)
	g.POST(basePath, h.Create)
	g.GET(basePath+"/:id", h.Show)
	g.GET(basePath+"/:id/edit", h.Edit)
	g.POST(basePath+"/:id", h.Update)
	g.POST(basePath+"/:id/delete", web.DeleteHandler(h.svc, "Diagnosis", basePath, h.views.Flash(), h.logger))
}

type ListData struct {
	Rows  []clinicmodels.Diagnosis
	Stats []web.Stat
	Pager web.Pager
}

type FormData struct {
	web.Form[Draft]
	Patients []clinicmodels.Patient
}

func (h *Handler) List(c echo.Context) error {
	diags, stats, err := h.svc.List(c.Request().Context())
	status := http.StatusOK
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch diagnoses")
		h.views.Flash().Error(c, "Failed to fetch diagnoses: "+apiclient.Message(err))
		status = web.UpstreamStatus(err)
	}

	pg := pagination.Slice(diags, pagination.FromContext(c))
	return h.views.Render(c, status, "diagnoses_list", web.Page{
		Title: "Diagnoses",
		Nav:   clinicmodels.ResourceDiagnoses,
		Data: ListData{
			Rows: pg.Items,
			Stats: []web.Stat{
				{Label: "Total Diagnoses", Value: stats.Total},
				{Label: "Unique Conditions", Value: stats.Conditions},
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
		h.logger.Warn().Err(err).Int64("id", id).Msg("diagnosis detail unavailable")
		return echo.NewHTTPError(http.StatusNotFound, "Diagnosis not found")
	}
	return h.views.Render(c, http.StatusOK, "diagnoses_detail", web.Page{
		Title: detail.Diagnosis.Condition,
		Nav:   clinicmodels.ResourceDiagnoses,
		Data:  detail,
	})
}

func (h *Handler) New(c echo.Context) error {
	form := FormData{Form: web.Form[Draft]{Action: basePath, Cancel: basePath}}
	if pid, err := web.ParseQueryID(c, "patient_id"); err == nil {
		form.Draft.PatientID = pid
	}
	return h.renderForm(c, http.StatusOK, form)
}

func (h *Handler) Create(c echo.Context) error {
	form := FormData{Form: web.Form[Draft]{Action: basePath, Cancel: basePath}}
	if err := h.forms.Bind(c, &form.Draft); err != nil {
		return h.fail(c, form, err)
	}
	created, err := h.svc.Create(c.Request().Context(), form.Draft)
	if err != nil {
		return h.fail(c, form, err)
	}
	h.logger.Info().Int64("id", created.ID).Msg("diagnosis created")
	h.views.Flash().Success(c, "Diagnosis created!")
	return c.Redirect(http.StatusSeeOther, basePath)
}

func (h *Handler) Edit(c echo.Context) error {
	id, err := web.ParseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		h.logger.Warn().Err(err).Int64("id", id).Msg("failed to load diagnosis for editing")
		return echo.NewHTTPError(http.StatusNotFound, "Diagnosis not found")
	}
	return h.renderForm(c, http.StatusOK, editForm(id, DraftFrom(d, h.views.Location())))
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
	h.views.Flash().Success(c, "Diagnosis updated successfully!")
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("%s/%d", basePath, id))
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
	h.logger.Info().Err(err).Msg("diagnosis form rejected")
	h.views.Flash().Error(c, web.FailureMessage(err))
	return h.renderForm(c, http.StatusUnprocessableEntity, form)
}

func (h *Handler) renderForm(c echo.Context, status int, form FormData) error {
	patients, err := h.svc.Patients(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load patients for the form")
		h.views.Flash().Error(c, "Failed to load patients: "+apiclient.Message(err))
	}
	form.Patients = patients
	form.Token = h.forms.Token()

	title := "Add Diagnosis"
	if form.Editing {
		title = "Edit Diagnosis"
	}
	return h.views.Render(c, status, "diagnoses_form", web.Page{Title: title, Nav: clinicmodels.ResourceDiagnoses, Data: form})
}
