package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable, machine-readable category of a domain error.
type ErrorKind string

const (
	KindValidation         ErrorKind = "VALIDATION_ERROR"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindIllegalTransition  ErrorKind = "ILLEGAL_TRANSITION"
	KindDriverUnavailable  ErrorKind = "DRIVER_UNAVAILABLE"
	KindVehicleUnavailable ErrorKind = "VEHICLE_UNAVAILABLE"
	KindInvalidPromo       ErrorKind = "INVALID_PROMO"
	KindPromoExpired       ErrorKind = "PROMO_EXPIRED"
	KindPromoLimitReached  ErrorKind = "PROMO_LIMIT_REACHED"
	KindDuplicateRating    ErrorKind = "DUPLICATE_RATING"
	KindInvalidStars       ErrorKind = "INVALID_STARS"
	KindTripNotEligible    ErrorKind = "TRIP_NOT_ELIGIBLE"
	KindUpstreamTimeout    ErrorKind = "UPSTREAM_TIMEOUT"
	KindInternal           ErrorKind = "INTERNAL"
)

// Error is a domain error carrying a stable kind and a human-readable message.
// Two errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError creates a domain error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a domain error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a domain error that wraps an underlying cause.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a domain error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether the caller may retry the failed operation unchanged.
func (e *Error) Retryable() bool {
	return e.Kind == KindUpstreamTimeout
}

// KindOf returns the kind of the first domain error in err's chain,
// or KindInternal if there is none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsRetryable reports whether err is a retryable domain error.
func IsRetryable(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Retryable()
	}
	return false
}

// Sentinel errors, one per kind. Match with errors.Is.
var (
	ErrValidation         = NewError(KindValidation, "validation failed")
	ErrNotFound           = NewError(KindNotFound, "not found")
	ErrIllegalTransition  = NewError(KindIllegalTransition, "illegal trip transition")
	ErrDriverUnavailable  = NewError(KindDriverUnavailable, "driver is not available for the requested window")
	ErrVehicleUnavailable = NewError(KindVehicleUnavailable, "vehicle is not available for the requested window")
	ErrInvalidPromo       = NewError(KindInvalidPromo, "promo code is not valid")
	ErrPromoExpired       = NewError(KindPromoExpired, "promo code has expired")
	ErrPromoLimitReached  = NewError(KindPromoLimitReached, "promo code usage limit reached")
	ErrDuplicateRating    = NewError(KindDuplicateRating, "trip has already been rated")
	ErrInvalidStars       = NewError(KindInvalidStars, "stars must be between 1 and 5")
	ErrTripNotEligible    = NewError(KindTripNotEligible, "trip is not eligible for rating")
	ErrUpstreamTimeout    = NewError(KindUpstreamTimeout, "upstream service did not respond in time")
)
