package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditEntry is one change made through the console.
type AuditEntry struct {
	User       string
	Resource   string
	RecordID   string
	Action     string // create, update, delete, login, logout, register
	IPAddress  string
	Path       string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries somewhere other than the log.
type AuditRecorder interface {
	RecordChange(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordChange(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every POST after it has been handled, naming the signed-in
// user returned by user. Reads are not audited.
func Audit(logger zerolog.Logger, user func() string, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodPost {
				return next(c)
			}

			// the user is read before sign-out clears it
			who := ""
			if user != nil {
				who = user()
			}

			err := next(c)

			entry := AuditEntry{
				User:       who,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				Timestamp:  time.Now().UTC(),
				StatusCode: auditStatus(c, err),
				RecordID:   c.Param("id"),
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}
			entry.Resource, entry.Action = classify(req.URL.Path)
			if entry.Action == "" {
				return err
			}
			if who == "" && entry.Action == "login" && entry.StatusCode < 400 && user != nil {
				entry.User = user()
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordChange(entry); recErr != nil {
					logger.Error().Err(recErr).Str("request_id", entry.RequestID).Msg("failed to record audit entry")
				}
			}

			evt := logger.Info()
			if entry.StatusCode >= 400 {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user", entry.User).
				Str("resource", entry.Resource).
				Str("record_id", entry.RecordID).
				Str("action", entry.Action).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_change")

			return err
		}
	}
}

// auditStatus is the status the client will see. A returned error has not
// been rendered yet, so its code wins over the uncommitted response.
func auditStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// classify maps a console POST path to the resource and action it performs.
//
//   - /login, /logout, /register -> account
//   - /doctors                   -> doctors, create
//   - /doctors/7                 -> doctors, update
//   - /doctors/7/delete          -> doctors, delete
func classify(path string) (resource, action string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(segments) == 1 && (segments[0] == "login" || segments[0] == "logout" || segments[0] == "register"):
		return "account", segments[0]
	case len(segments) == 1 && segments[0] != "":
		return segments[0], "create"
	case len(segments) == 2:
		return segments[0], "update"
	case len(segments) == 3 && segments[2] == "delete":
		return segments[0], "delete"
	}
	return "", ""
}
