package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/shelfpulse/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("service unavailable")
)

// fetchFailedMessage is the fixed body message for the dashboard failure
// state; upstream details stay in the logs.
const fetchFailedMessage = "failed to fetch"

// Error annotates a failure with the handler operation that saw it and the
// kind used to choose a status code.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both kind and cause to errors.Is.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewKind returns an error of the given kind with no underlying cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap annotates err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// errorStatus maps an error to a status, a stable code and the public message.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrFetchFailed):
		return http.StatusBadGateway, "fetch_failed", fetchFailedMessage
	case errors.Is(err, service.ErrNotReady):
		return http.StatusServiceUnavailable, "not_ready", "dashboard not ready"
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found", "product not found"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable", http.StatusText(http.StatusServiceUnavailable)
	default:
		return http.StatusInternalServerError, "internal_error", http.StatusText(http.StatusInternalServerError)
	}
}
