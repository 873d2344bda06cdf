// File: internal/common/errors.go
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError represents a standard structure for API errors.
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s, Details=%v", e.StatusCode, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s", e.StatusCode, e.Code, e.Message)
}

func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details. The package level
// sentinels are shared, so they must never be mutated in place.
func (e *APIError) WithDetails(details interface{}) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

// Is lets errors.Is match an APIError against a sentinel by code.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.StatusCode == t.StatusCode
}

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeUpstream          = "UPSTREAM_ERROR"
	CodeConflict          = "CONFLICT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
)

var (
	ErrBadRequest          = NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "The request is invalid.")
	ErrUnauthorized        = NewAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication is required and has failed or has not yet been provided.")
	ErrForbidden           = NewAPIError(http.StatusForbidden, CodeForbidden, "You do not have permission to access this resource.")
	ErrNotFound            = NewAPIError(http.StatusNotFound, CodeNotFound, "The requested resource could not be found.")
	ErrConflict            = NewAPIError(http.StatusConflict, CodeConflict, "A conflict occurred with the current state of the resource.")
	ErrUnprocessableEntity = NewAPIError(http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", "The request was well-formed but was unable to be followed due to semantic errors.")
	ErrInternalServer      = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred on the server.")
	ErrServiceUnavailable  = NewAPIError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "The server is currently unable to handle the request.")
	ErrValidation          = NewAPIError(http.StatusBadRequest, CodeValidation, "Input validation failed.")
	ErrUpstream            = NewAPIError(http.StatusInternalServerError, CodeUpstream, "An upstream service failed to respond.")
	ErrInvalidTransition   = NewAPIError(http.StatusConflict, CodeInvalidTransition, "The requested status change is not allowed from the current state.")
)

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// HasCode reports whether err is an APIError with the given code.
func HasCode(err error, code string) bool {
	apiErr, ok := IsAPIError(err)
	return ok && apiErr.Code == code
}

// NewValidationAPIError wraps binding failures.
func NewValidationAPIError(details interface{}) *APIError {
	return ErrValidation.WithDetails(details)
}

// NewValidationError reports a request that fails a domain precondition.
func NewValidationError(details interface{}) *APIError {
	return ErrValidation.WithDetails(details)
}

// NewUpstreamError reports a failed or timed out call to an external service.
func NewUpstreamError(details interface{}) *APIError {
	return ErrUpstream.WithDetails(details)
}

// NewInvalidTransitionError reports a claim action attempted from the wrong state.
func NewInvalidTransitionError(from, action string) *APIError {
	return ErrInvalidTransition.WithDetails(fmt.Sprintf("cannot %s a claim in status '%s'", action, from))
}

// FormatValidationErrors converts validator.ValidationErrors into a map.
func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMap := make(map[string]string)
	for _, e := range errs {
		field := e.Field()
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("The %s field is required.", strings.ToLower(field))
		case "email":
			message = fmt.Sprintf("The %s field must be a valid email address.", strings.ToLower(field))
		case "min":
			message = fmt.Sprintf("The %s field must be at least %s.", strings.ToLower(field), e.Param())
		case "max":
			message = fmt.Sprintf("The %s field may not be greater than %s.", strings.ToLower(field), e.Param())
		case "gt":
			message = fmt.Sprintf("The %s field must be greater than %s.", strings.ToLower(field), e.Param())
		case "oneof":
			message = fmt.Sprintf("The %s field must be one of the following values: %s.", strings.ToLower(field), e.Param())
		case "uuid", "uuid4":
			message = fmt.Sprintf("The %s field must be a valid UUID.", strings.ToLower(field))
		case "neighborhood":
			message = fmt.Sprintf("The %s field must be one of: %s.", strings.ToLower(field), strings.Join(Neighborhoods, ", "))
		case "dive":
			message = fmt.Sprintf("The %s field contains an invalid entry.", strings.ToLower(field))
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", field, e.Tag())
		}
		errorMap[field] = message
	}
	return errorMap
}

// NewBindingError converts a gin binding failure into an APIError.
func NewBindingError(err error) *APIError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return NewValidationAPIError(FormatValidationErrors(ve))
	}
	return NewValidationAPIError(err.Error())
}
