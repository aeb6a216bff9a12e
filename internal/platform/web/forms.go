package web

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic-admin/internal/platform/apiclient"
	"github.com/clinic/clinic-admin/internal/platform/submit"
)

// Validator adapts go-playground/validator to echo. Field names in messages
// are the form field names.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return &FieldError{Message: strings.Join(msgs, ", ")}
}

// FieldError is a failed required-field check.
type FieldError struct {
	Message string
}

func (e *FieldError) Error() string { return e.Message }

// ParseID reads the :id route parameter. Anything but a positive integer is
// a missing record.
func ParseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "record not found")
	}
	return id, nil
}

// ParseQueryID reads a positive integer query parameter, used to pre-select
// a reference on a create form.
func ParseQueryID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.QueryParam(name), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return id, nil
}

// ErrDuplicateSubmit is returned by Forms.Bind for a replayed form.
var ErrDuplicateSubmit = errors.New("this form was already submitted")

// Forms binds and checks submitted forms.
type Forms struct {
	guard *submit.Guard
}

func NewForms(guard *submit.Guard) *Forms {
	return &Forms{guard: guard}
}

// Token issues the one-time token a rendered form carries.
func (f *Forms) Token() string { return f.guard.Issue() }

// Bind claims the form's one-time token, binds the body into draft and
// validates it. A replayed form returns ErrDuplicateSubmit and leaves draft
// untouched; a validation failure returns *FieldError with draft bound.
func (f *Forms) Bind(c echo.Context, draft any) error {
	if err := f.guard.Claim(c.FormValue(submit.FieldName)); err != nil {
		return ErrDuplicateSubmit
	}
	if err := c.Bind(draft); err != nil {
		return &FieldError{Message: "the form could not be read"}
	}
	return c.Validate(draft)
}

// FailureMessage is the notice shown when a create or update fails.
func FailureMessage(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return "Validation failed: " + fe.Message
	}
	if errors.Is(err, ErrDuplicateSubmit) {
		return ErrDuplicateSubmit.Error()
	}
	if apiclient.IsTransport(err) {
		return apiclient.Message(err)
	}
	return "Validation failed: " + apiclient.Message(err)
}
