// Package validation checks request payloads and reports every violated
// field at once.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/2beens/fittrack/internal/apierr"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("date", isDate); err != nil {
		panic(fmt.Sprintf("register date validation: %s", err))
	}

	return v
}

func isDate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if _, err := time.Parse(dateLayout, value); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, value)
	return err == nil
}

// Struct validates v and returns an *apierr.ValidationError holding one
// entry per violated constraint, in struct field order.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %T: %w", v, err)
	}

	details := make([]apierr.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apierr.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return apierr.NewValidationError(details...)
}

// DecodeJSON decodes the request body into dst and validates it. Malformed
// bodies are reported as validation errors as well.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apierr.NewValidationError(apierr.FieldError{Field: "body", Message: "is required"})
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return decodeError(err)
	}

	return Struct(dst)
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("%w: limit is %d bytes", apierr.ErrTooLarge, maxBytesErr.Limit)
	case errors.Is(err, io.EOF):
		return apierr.NewValidationError(apierr.FieldError{Field: "body", Message: "is required"})
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apierr.NewValidationError(apierr.FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", jsonType(typeErr.Type)),
		})
	default:
		return apierr.NewValidationError(apierr.FieldError{Field: "body", Message: "must be valid JSON"})
	}
}

// fieldPath drops the top level struct name from the namespace,
// e.g. "PreferencesForm.notifications.weeklyReport" -> "notifications.weeklyReport".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "date":
		return "must be a date (YYYY-MM-DD or RFC 3339)"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func jsonType(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return t.Kind().String()
	}
}
