package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrForbidden is returned when the caller's role or ownership does not permit the action.
	ErrForbidden = errors.New("forbidden")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotVerified is returned when an unverified account tries to log in.
	ErrNotVerified = errors.New("account not verified, please verify your OTP")
	// ErrAlreadyVerified is returned when verifying an account twice.
	ErrAlreadyVerified = errors.New("user already verified")
	// ErrInvalidOTP is returned when the submitted code does not match.
	ErrInvalidOTP = errors.New("invalid OTP")
	// ErrOTPExpired is returned when the code is past its expiry.
	ErrOTPExpired = errors.New("OTP has expired")
	// ErrTooManyAttempts is returned when an auth endpoint is throttled.
	ErrTooManyAttempts = errors.New("too many attempts, try again later")

	// ErrMissingCredential is returned when no Authorization header is sent.
	ErrMissingCredential = errors.New("authorization header missing")
	// ErrMalformedCredential is returned when the header is not "Bearer <token>".
	ErrMalformedCredential = errors.New(`token format is "Bearer <token>"`)
	// ErrExpiredCredential is returned for a correctly signed but expired token.
	ErrExpiredCredential = errors.New("token expired")
	// ErrInvalidCredential is returned for any other token failure.
	ErrInvalidCredential = errors.New("invalid token")
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ForbiddenError carries a caller-facing reason for a denied request.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "Forbidden: " + e.Reason
}

// Is lets errors.Is(err, ErrForbidden) match any ForbiddenError.
func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// InvalidPhaseError is returned when a review does not match the proposal's current phase.
type InvalidPhaseError struct {
	CurrentStatus string
}

func (e *InvalidPhaseError) Error() string {
	return fmt.Sprintf("Cannot review: Proposal status is currently '%s'.", e.CurrentStatus)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Details    map[string]interface{}
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unrecognised is
// reported as a generic 500 so store internals never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	var (
		validationErr *ValidationError
		forbiddenErr  *ForbiddenError
		phaseErr      *InvalidPhaseError
		httpErr       *HTTPError
	)

	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &validationErr):
		return NewHTTPError(http.StatusBadRequest, validationErr.Message, "VALIDATION_ERROR")
	case errors.As(err, &phaseErr):
		he := NewHTTPError(http.StatusBadRequest, phaseErr.Error(), "INVALID_PHASE")
		he.Details = map[string]interface{}{"current_status": phaseErr.CurrentStatus}
		return he
	case errors.As(err, &forbiddenErr):
		return NewHTTPError(http.StatusForbidden, forbiddenErr.Error(), "FORBIDDEN")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, "Forbidden", "FORBIDDEN")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrNotVerified):
		return NewHTTPError(http.StatusForbidden, err.Error(), "NOT_VERIFIED")
	case errors.Is(err, ErrAlreadyVerified):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "ALREADY_VERIFIED")
	case errors.Is(err, ErrInvalidOTP):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_OTP")
	case errors.Is(err, ErrOTPExpired):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "OTP_EXPIRED")
	case errors.Is(err, ErrTooManyAttempts):
		return NewHTTPError(http.StatusTooManyRequests, err.Error(), "TOO_MANY_ATTEMPTS")
	case errors.Is(err, ErrMissingCredential):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "AUTH_MISSING")
	case errors.Is(err, ErrMalformedCredential):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "AUTH_MALFORMED")
	case errors.Is(err, ErrExpiredCredential):
		return NewHTTPError(http.StatusForbidden, err.Error(), "AUTH_EXPIRED")
	case errors.Is(err, ErrInvalidCredential):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "AUTH_INVALID")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
