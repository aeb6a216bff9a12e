package doctor

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

const basePath = "/" + clinicmodels.ResourceDoctors

type Handler struct {
	svc    *Service
	views  *web.Views
	forms  *web.Forms
	logger zerolog.Logger
}

func NewHandler(svc *Service, views *web.Views, forms *web.Forms, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, views: views, forms: forms, logger: logger.With().Str("resource", clinicmodels.ResourceDoctors).Logger()}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET(basePath, h.List)
	g.GET(basePath+"/create", h.New)
	g.POST(basePath, h.Create)
	g.GET(basePath+"/:id", h.Show)
	g.GET(basePath+"/:id/edit", h.Edit)
	g.POST(basePath+"/:id", h.Update)
	g.POST(basePath+"/:id/delete", web.DeleteHandler(h.svc, "Doctor", basePath, h.views.Flash(), h.logger))
}

// ListData feeds doctors_list.
type ListData struct {
	Rows  []clinicmodels.Doctor
	Stats []web.Stat
	Pager web.Pager
}

// FormData feeds doctors_form.
type FormData = web.Form[Draft]

func (h *Handler) List(c echo.Context) error {
	doctors, stats, err := h.svc.List(c.Request().Context())
	status := http.StatusOK
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch doctors")
		h.views.Flash().Error(c, "Failed to fetch doctors: "+apiclient.Message(err))
		status = web.UpstreamStatus(err)
	}

	pg := pagination.Slice(doctors, pagination.FromContext(c))
	data := ListData{
		Rows: pg.Items,
		Stats: []web.Stat{
			{Label: "Total Doctors", Value: stats.Total},
			{Label: "Specialisations", Value: stats.Specialisations},
		},
		Pager: web.NewPager(pg, basePath),
	}
	return h.views.Render(c, status, "doctors_list", web.Page{Title: "Doctors", Nav: clinicmodels.ResourceDoctors, Data: data})
}

func (h *Handler) Show(c echo.Context) error {
	id, err := web.ParseID(c)
	if err != nil {
		return err
	}
	detail, err := h.svc.Detail(c.Request().Context(), id)
	if err != nil {
		h.logger.Warn().Err(err).Int64("id", id).Msg("doctor detail unavailable")
		return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	}
	return h.views.Render(c, http.StatusOK, "doctors_detail", web.Page{
		Title: "Dr. " + detail.Doctor.FullName(),
		Nav:   clinicmodels.ResourceDoctors,
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
	h.logger.Info().Int64("id", created.ID).Msg("doctor created")
	h.views.Flash().Success(c, "Doctor created successfully!")
	return c.Redirect(http.StatusSeeOther, basePath)
}

func (h *Handler) Edit(c echo.Context) error {
	id, err := web.ParseID(c)
	if err != nil {
		return err
	}
	doc, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		h.logger.Warn().Err(err).Int64("id", id).Msg("failed to load doctor for editing")
		return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	}
	return h.renderForm(c, http.StatusOK, editForm(id, DraftFrom(doc)))
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
	h.views.Flash().Success(c, "Doctor updated successfully!")
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("%s/%d", basePath, id))
}

func editForm(id int64, d Draft) FormData {
	return FormData{
		Editing: true,
		ID:      id,
		Action:  fmt.Sprintf("%s/%d", basePath, id),
		Cancel:  fmt.Sprintf("%s/%d", basePath, id),
		Draft:   d,
	}
}

// fail keeps the draft on screen with the reason. A replayed form is sent
// back to where the first submission went.
func (h *Handler) fail(c echo.Context, form FormData, err error) error {
	if errors.Is(err, web.ErrDuplicateSubmit) {
		h.views.Flash().Info(c, "This form was already submitted.")
		return c.Redirect(http.StatusSeeOther, form.Cancel)
	}
	h.logger.Info().Err(err).Msg("doctor form rejected")
	h.views.Flash().Error(c, web.FailureMessage(err))
	return h.renderForm(c, http.StatusUnprocessableEntity, form)
}

func (h *Handler) renderForm(c echo.Context, status int, form FormData) error {
	form.Token = h.forms.Token()
	title := "Add Doctor"
	if form.Editing {
		title = "Edit Doctor"
	}
	return h.views.Render(c, status, "doctors_form", web.Page{Title: title, Nav: clinicmodels.ResourceDoctors, Data: form})
}
