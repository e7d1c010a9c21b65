package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError for logging and metrics.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindRateLimited    Kind = "rate_limited"
	KindUpstream       Kind = "upstream"
	KindUnavailable    Kind = "unavailable"
	KindTimeout        Kind = "timeout"
	KindInternal       Kind = "internal"
)

// Messages used by the access gate. Clients match on them.
const (
	MsgUnauthorized = "Unauthorized Access"
	MsgForbidden    = "Forbidden Access"
)

// AppError is an error that knows which HTTP status it maps to.
type AppError struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Body is the JSON error shape returned to clients.
type Body struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func (e *AppError) Body() Body {
	return Body{Error: true, Message: e.Message}
}

func newErr(kind Kind, status int, msg string, err error) *AppError {
	return &AppError{Kind: kind, Message: msg, Status: status, Err: err}
}

func Unauthorized() *AppError {
	return newErr(KindAuthentication, http.StatusUnauthorized, MsgUnauthorized, nil)
}

func Forbidden() *AppError {
	return newErr(KindAuthorization, http.StatusForbidden, MsgForbidden, nil)
}

func Validation(msg string) *AppError {
	return newErr(KindValidation, http.StatusBadRequest, msg, nil)
}

func ValidationWrap(err error, msg string) *AppError {
	return newErr(KindValidation, http.StatusBadRequest, msg, err)
}

func NotFound(resource string) *AppError {
	return newErr(KindNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource), nil)
}

func Conflict(msg string) *AppError {
	return newErr(KindConflict, http.StatusConflict, msg, nil)
}

func TooManyRequests() *AppError {
	return newErr(KindRateLimited, http.StatusTooManyRequests, "Rate limit exceeded", nil)
}

func Upstream(service string, err error) *AppError {
	return newErr(KindUpstream, http.StatusBadGateway, fmt.Sprintf("%s request failed", service), err)
}

func Unavailable(service string) *AppError {
	return newErr(KindUnavailable, http.StatusServiceUnavailable, fmt.Sprintf("%s is not available", service), nil)
}

func Timeout(err error) *AppError {
	return newErr(KindTimeout, http.StatusGatewayTimeout, "request timed out", err)
}

func Internal(msg string, err error) *AppError {
	return newErr(KindInternal, http.StatusInternalServerError, msg, err)
}

// From converts any error into an AppError. Context deadline errors become
// timeouts; everything unknown is internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(err)
	}
	return Internal("Internal Server Error", err)
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Kind == kind
}
