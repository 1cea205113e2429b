// Package apierr defines the errors the API surfaces to callers and how each
// of them is rendered on the wire.
package apierr

import (
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/fittrack/pkg"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTooLarge     = errors.New("request body too large")
)

// NotFoundError names the resource that is missing. It matches ErrNotFound
// with errors.Is.
type NotFoundError struct {
	Resource string
	ID       string
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (fe FieldError) String() string {
	return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Details []FieldError
}

func NewValidationError(details ...FieldError) *ValidationError {
	return &ValidationError{Details: details}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(e.Details))
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Writer renders errors as JSON responses. With Verbose set, internal
// errors carry their cause in the message field.
type Writer struct {
	Verbose bool
}

func (ew Writer) Write(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		pkg.WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: validationErr.Details,
		})
	case errors.Is(err, ErrNotFound):
		msg := ErrNotFound.Error()
		var nfErr *NotFoundError
		if errors.As(err, &nfErr) {
			msg = nfErr.Error()
		}
		pkg.WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: msg})
	case errors.Is(err, ErrForbidden):
		pkg.WriteJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	case errors.Is(err, ErrTooLarge):
		pkg.WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrTooLarge.Error()})
	case errors.Is(err, ErrUnauthorized):
		pkg.WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	default:
		log.Errorf("internal error [%s %s]: %s", r.Method, r.URL.Path, err)
		resp := ErrorResponse{Error: "internal server error"}
		if ew.Verbose {
			resp.Message = err.Error()
		}
		pkg.WriteJSON(w, http.StatusInternalServerError, resp)
	}
}
