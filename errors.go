package goAccount

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an Engine error for transport mapping.
type ErrorKind uint8

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindConflict
	KindAuth
	KindThrottled
	KindNotFound
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindThrottled:
		return "throttled"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is a taxonomy error. Message is safe to show to clients.
type Error struct {
	Kind    ErrorKind
	Message string

	base *Error
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel a derived error was built from.
func (e *Error) Unwrap() error {
	if e.base == nil {
		return nil
	}
	return e.base
}

// WithMessage derives an error with the same kind and a specific message.
// errors.Is still matches the receiver.
func (e *Error) WithMessage(message string) *Error {
	return &Error{Kind: e.Kind, Message: message, base: e}
}

var (
	// ErrMissingFields is returned when a required request field is blank.
	ErrMissingFields = newError(KindValidation, "Please enter all fields.")
	// ErrMissingVerificationInput is returned by VerifyOTP without email or code.
	ErrMissingVerificationInput = newError(KindValidation, "Email or OTP is missing.")

	ErrEmailRequired    = newError(KindValidation, "Email is required.")
	ErrInvalidEmail     = newError(KindValidation, "Please provide a valid email.")
	ErrPasswordMismatch = newError(KindValidation, "Password and confirm password do not match.")

	// ErrPasswordLength is the base of the bounds error; the returned error
	// names the configured limits.
	ErrPasswordLength = newError(KindValidation, "Password does not meet the length requirements.")

	ErrAccountExists   = newError(KindConflict, "User already exists.")
	ErrTooManyAttempts = newError(KindThrottled, "Too many registration attempts. Please try again later.")
	ErrPendingNotFound = newError(KindNotFound, "User not found.")

	ErrInvalidCode = newError(KindValidation, "Invalid OTP.")
	ErrCodeExpired = newError(KindValidation, "OTP expired.")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = newError(KindAuth, "Invalid email or password.")

	ErrCurrentPasswordIncorrect = newError(KindAuth, "Current password is incorrect.")
	ErrUnauthorized             = newError(KindAuth, "User is not authenticated.")
	ErrForbidden                = newError(KindForbidden, "You are not allowed to access this resource.")

	ErrUnknownEmail      = newError(KindValidation, "Invalid email.")
	ErrInvalidResetToken = newError(KindValidation, "Reset password token is invalid or has been expired.")

	ErrCodeDeliveryFailed  = newError(KindInternal, "Failed to send verification code. Please try again.")
	ErrResetDeliveryFailed = newError(KindInternal, "Failed to send password reset email. Please try again.")
	ErrInternal            = newError(KindInternal, "Internal server error.")
	ErrEngineNotReady      = newError(KindInternal, "Service is not ready.")
)

// KindOf returns the taxonomy kind of err. Errors outside the taxonomy are
// KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing message for err. Errors outside
// the taxonomy never leak their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}

func passwordLengthError(min, max int) error {
	return ErrPasswordLength.WithMessage(fmt.Sprintf("Password must be between %d and %d characters.", min, max))
}

func forbiddenError(role string) error {
	if role == "" {
		return ErrForbidden
	}
	return ErrForbidden.WithMessage(fmt.Sprintf("%s cannot access this resource.", role))
}
