package common

import (
	"encoding/json"
	"net/http"
)

// Error is a client-facing failure. It serializes to
// {name, message, action, status_code[, context]}; the cause is kept for
// logging only and never leaves the process.
type Error struct {
	Name       string
	Message    string
	Action     string
	StatusCode int
	Context    map[string]any
	cause      error
}

func (e *Error) Error() string {
	return e.Name + ": " + e.Message
}

// Unwrap exposes the internal cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithContext returns a copy of e carrying the given context payload.
func (e *Error) WithContext(ctx map[string]any) *Error {
	c := *e
	c.Context = ctx
	return &c
}

func (e *Error) MarshalJSON() ([]byte, error) {
	body := struct {
		Name       string         `json:"name"`
		Message    string         `json:"message"`
		Action     string         `json:"action"`
		StatusCode int            `json:"status_code"`
		Context    map[string]any `json:"context,omitempty"`
	}{e.Name, e.Message, e.Action, e.StatusCode, e.Context}
	return json.Marshal(body)
}

func newError(name string, status int, message, action string, cause error) *Error {
	return &Error{Name: name, Message: message, Action: action, StatusCode: status, cause: cause}
}

func NewValidationError(message, action string) *Error {
	if message == "" {
		message = "A validation error occurred."
	}
	if action == "" {
		action = "Adjust the data sent and try again."
	}
	return newError("ValidationError", http.StatusBadRequest, message, action, nil)
}

func NewUnauthorizedError(message, action string) *Error {
	if message == "" {
		message = "User not authenticated."
	}
	if action == "" {
		action = "Log in again to continue."
	}
	return newError("UnauthorizedError", http.StatusUnauthorized, message, action, nil)
}

func NewForbiddenError(message, action string) *Error {
	if message == "" {
		message = "Access denied."
	}
	if action == "" {
		action = "Check the features required for this action."
	}
	return newError("ForbiddenError", http.StatusForbidden, message, action, nil)
}

func NewNotFoundError(message, action string) *Error {
	if message == "" {
		message = "The resource was not found in the system."
	}
	if action == "" {
		action = "Check that the parameters sent in the query are correct."
	}
	return newError("NotFoundError", http.StatusNotFound, message, action, nil)
}

func NewMethodNotAllowedError() *Error {
	return newError("MethodNotAllowedError", http.StatusMethodNotAllowed,
		"Method not allowed for this endpoint.",
		"Check that the HTTP method sent is valid for this endpoint.", nil)
}

func NewConflictError(message, action string) *Error {
	if message == "" {
		message = "The resource conflicts with existing data."
	}
	if action == "" {
		action = "Use different values and try again."
	}
	return newError("ConflictError", http.StatusConflict, message, action, nil)
}

// NewInternalServerError hides cause behind a generic message.
func NewInternalServerError(cause error) *Error {
	return newError("InternalServerError", http.StatusInternalServerError,
		"An unexpected internal error occurred.",
		"Contact support.", cause)
}

// NewServiceError reports an unavailable downstream dependency.
func NewServiceError(message, action string, cause error) *Error {
	if message == "" {
		message = "Service unavailable at the moment."
	}
	if action == "" {
		action = "Check that the service is available."
	}
	return newError("ServiceError", http.StatusServiceUnavailable, message, action, cause)
}
