package common

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/labstack/echo/v4"
)

var clockTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// RequestValidator plugs go-playground/validator into echo's c.Validate.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator registers the custom tags used by request payloads.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockTimePattern.MatchString(fl.Field().String())
	})
	return &RequestValidator{validate: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &FieldError{Field: verrs[0].Field(), Message: describe(verrs[0])}
		}
		return errors.NewNotValid(err, "request")
	}
	return nil
}

// FieldError is returned by RequestValidator for the first failing field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Is lets FieldError satisfy errors.Is(err, errors.NotValid).
func (e *FieldError) Is(target error) bool {
	return target == errors.NotValid
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "clock":
		return "must be a HH:MM time"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	default:
		return "is invalid"
	}
}

// BindAndValidate binds the request body into dst and runs validation,
// writing the error envelope itself on failure. The returned bool reports
// whether the handler may continue.
func BindAndValidate(c echo.Context, dst interface{}) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, SendClientError(c, "Invalid request format")
	}
	if err := c.Validate(dst); err != nil {
		var fe *FieldError
		if errors.As(err, &fe) {
			return false, SendValidationError(c, fe.Field, fe.Message)
		}
		return false, SendClientError(c, err.Error())
	}
	return true, nil
}
