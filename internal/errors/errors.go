package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrConflict            = errors.New("resource conflict")
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInternalServer      = errors.New("internal server error")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")

	// Business errors
	ErrRideUnavailable     = errors.New("ride unavailable")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrAlreadyJoined       = errors.New("already joined")
	ErrAlreadyMember       = errors.New("already a pool member")
	ErrAlreadyRecorded     = errors.New("already recorded")
	ErrDuplicateEmail      = errors.New("email already registered")
)

// Stable machine-readable error codes
const (
	CodeValidation          = "validation_error"
	CodeNotFound            = "not_found"
	CodeNotOwner            = "not_owner"
	CodeSelfJoin            = "self_join"
	CodeAlreadyJoined       = "already_joined"
	CodeAlreadyMember       = "already_member"
	CodeRideUnavailable     = "ride_unavailable"
	CodeConcurrencyConflict = "concurrency_conflict"
	CodeUnauthorized        = "unauthorized"
	CodeConflict            = "conflict"
	CodeInternal            = "internal_error"
)

// APIError represents a structured API error
type APIError struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is compare API errors by code.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Common API errors
func NotFound(resource string) *APIError {
	return NewAPIError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func Validation(message string) *APIError {
	return NewAPIError(CodeValidation, message, http.StatusBadRequest)
}

func BadRequest(message string) *APIError {
	return Validation(message)
}

func Conflict(message string) *APIError {
	return NewAPIError(CodeConflict, message, http.StatusConflict)
}

func InternalError(message string) *APIError {
	return NewAPIError(CodeInternal, message, http.StatusInternalServerError)
}

func Unauthorized(message string) *APIError {
	return NewAPIError(CodeUnauthorized, message, http.StatusUnauthorized)
}

func IdempotencyConflict() *APIError {
	return NewAPIError("idempotency_conflict", "idempotency key already used with different request", http.StatusConflict)
}

func NotOwner(action string) *APIError {
	return NewAPIError(CodeNotOwner, fmt.Sprintf("only the driver can %s this ride", action), http.StatusForbidden)
}

func SelfJoin() *APIError {
	return NewAPIError(CodeSelfJoin, "driver cannot join their own ride", http.StatusConflict)
}

func AlreadyJoined() *APIError {
	return NewAPIError(CodeAlreadyJoined, "you have already joined this ride", http.StatusConflict)
}

func AlreadyMember() *APIError {
	return NewAPIError(CodeAlreadyMember, "you are already a member of this pool", http.StatusConflict)
}

// RideUnavailable reports a ride that cannot take another passenger. The
// reason is shown to the user ("ride is full", "ride was cancelled").
func RideUnavailable(reason string) *APIError {
	return NewAPIError(CodeRideUnavailable, reason, http.StatusConflict)
}

func ConcurrencyConflict() *APIError {
	return NewAPIError(CodeConcurrencyConflict, "the last seat was just taken, please retry", http.StatusConflict)
}

func InvalidTransition(from, to string) *APIError {
	return NewAPIError(CodeRideUnavailable, fmt.Sprintf("cannot transition from %s to %s", from, to), http.StatusConflict)
}

// AsAPIError maps sentinel errors onto their API form. Unknown errors yield nil.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NewAPIError(CodeNotFound, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrRideUnavailable):
		return RideUnavailable("ride is no longer available")
	case errors.Is(err, ErrConcurrencyConflict):
		return ConcurrencyConflict()
	case errors.Is(err, ErrAlreadyJoined):
		return AlreadyJoined()
	case errors.Is(err, ErrAlreadyMember):
		return AlreadyMember()
	case errors.Is(err, ErrDuplicateEmail):
		return Conflict("an account with this email already exists")
	case errors.Is(err, ErrUnauthorized):
		return Unauthorized("unauthorized")
	case errors.Is(err, ErrBadRequest):
		return Validation(err.Error())
	}
	return nil
}
