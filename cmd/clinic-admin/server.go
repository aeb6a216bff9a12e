package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic-admin/internal/config"
	"github.com/clinic/clinic-admin/internal/domain/account"
	"github.com/clinic/clinic-admin/internal/domain/appointment"
	"github.com/clinic/clinic-admin/internal/domain/diagnosis"
	"github.com/clinic/clinic-admin/internal/domain/doctor"
	"github.com/clinic/clinic-admin/internal/domain/patient"
	"github.com/clinic/clinic-admin/internal/domain/prescription"
	"github.com/clinic/clinic-admin/internal/platform/apiclient"
	"github.com/clinic/clinic-admin/internal/platform/auth"
	"github.com/clinic/clinic-admin/internal/platform/db"
	"github.com/clinic/clinic-admin/internal/platform/middleware"
	"github.com/clinic/clinic-admin/internal/platform/notify"
	"github.com/clinic/clinic-admin/internal/platform/resource"
	"github.com/clinic/clinic-admin/internal/platform/session"
	"github.com/clinic/clinic-admin/internal/platform/submit"
	"github.com/clinic/clinic-admin/internal/platform/web"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

const version = "0.1.0"

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	lvl, _ := cfg.Level()
	return logger.Level(lvl)
}

// openStorage returns the configured session storage. The pool is non-nil
// only for the postgres store and must be closed by the caller.
func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (session.Storage, *pgxpool.Pool, error) {
	switch cfg.SessionStore {
	case config.SessionStoreMemory:
		return session.NewMemoryStorage(), nil, nil
	case config.SessionStorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL,
			db.WithConns(cfg.DBMaxConns, cfg.DBMinConns),
			db.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		pg := session.NewPGStorage(pool, "")
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("session schema: %w", err)
		}
		return pg, pool, nil
	default:
		path := cfg.SessionFile
		if path == "" {
			path = session.DefaultFilePath()
		}
		logger.Debug().Str("path", path).Msg("session file")
		return session.NewFileStorage(path), nil, nil
	}
}

func newAPIClient(cfg *config.Config, logger zerolog.Logger) (*apiclient.Client, error) {
	return apiclient.New(cfg.APIBaseURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		apiclient.WithLogger(logger),
		apiclient.WithHeader("User-Agent", "clinic-admin/"+version),
	)
}

// newSession builds the store, hooks the client's Authorization header to
// it and loads the persisted session.
func newSession(ctx context.Context, storage session.Storage, client *apiclient.Client, logger zerolog.Logger) *session.Store {
	store := session.NewStore(storage, client, logger)
	store.Subscribe(client.SetBearerToken)
	store.Restore(ctx)
	return store
}

// newServer wires the console. pinger is nil unless the session lives in
// Postgres.
func newServer(cfg *config.Config, store *session.Store, client *apiclient.Client, pinger db.Pinger, logger zerolog.Logger) (*echo.Echo, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	renderer, err := web.NewRenderer(loc)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	flash := notify.New(cfg.CookieSecure)
	views := web.NewViews(store, flash, loc)
	forms := web.NewForms(submit.NewGuard(submit.DefaultTTL))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Validator = web.NewValidator()
	e.HTTPErrorHandler = web.ErrorHandler(views, logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CSRFWithConfig(echomw.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		ContextKey:     web.CSRFContextKey,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	e.Use(middleware.Audit(logger, func() string {
		if u := store.CurrentUser(); u != nil {
			return u.Email
		}
		return ""
	}))
	e.Use(auth.RequireSession(store, auth.GuardConfig{
		OnDenied: func(c echo.Context) { flash.Info(c, "Please sign in to continue.") },
	}))

	web.RegisterStatic(e)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(cfg.SessionStore, pinger))

	g := e.Group("")

	account.NewHandler(store, client, views, forms, logger).
		RegisterRoutes(g, middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	doctors := resource.NewRepo[clinicmodels.Doctor](client, clinicmodels.ResourceDoctors)
	patients := resource.NewRepo[clinicmodels.Patient](client, clinicmodels.ResourcePatients)
	appointments := resource.NewRepo[clinicmodels.Appointment](client, clinicmodels.ResourceAppointments)

	doctorSvc := doctor.NewService(doctor.NewAPIRepository(client), appointments, patients)
	doctor.NewHandler(doctorSvc, views, forms, logger).RegisterRoutes(g)

	patientSvc := patient.NewService(patient.NewAPIRepository(client), patient.NewAPIHistory(client))
	patient.NewHandler(patientSvc, views, forms, logger).RegisterRoutes(g)

	apptSvc := appointment.NewService(appointment.NewAPIRepository(client), doctors, patients, loc)
	appointment.NewHandler(apptSvc, views, forms, logger).RegisterRoutes(g)

	dxSvc := diagnosis.NewService(diagnosis.NewAPIRepository(client), patients)
	diagnosis.NewHandler(dxSvc, views, forms, logger).RegisterRoutes(g)

	rxSvc := prescription.NewService(prescription.NewAPIRepository(client), prescription.NewAPISources(client), loc)
	prescription.NewHandler(rxSvc, views, forms, logger).RegisterRoutes(g)

	return e, nil
}

// pingerFor avoids handing a typed nil pool to the health check.
func pingerFor(pool *pgxpool.Pool) db.Pinger {
	if pool == nil {
		return nil
	}
	return pool
}

// shutdownTimeout bounds how long in-flight pages may finish on exit.
const shutdownTimeout = 10 * time.Second
