// Package http provides the JSON API served to the dashboard.
//
// This file implements the Builder Pattern for constructing API responses.
// Every body is an envelope holding either data or an error, plus an
// optional notification the client shows to the user.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"expensedash/internal/core"
)

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notification is a short message for the user.
type Notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration,omitempty"` // milliseconds
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type envelope struct {
	Data         any           `json:"data,omitempty"`
	Error        *ErrorBody    `json:"error,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	body       envelope
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the payload.
func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.body.Data = v
	return b
}

// Notify attaches a notification.
func (b *ResponseBuilder) Notify(t NotificationType, message string, durationMs int) *ResponseBuilder {
	b.body.Notification = &Notification{Type: t, Message: message, Duration: durationMs}
	return b
}

// Success is a convenience method for success notifications.
func (b *ResponseBuilder) Success(message string) *ResponseBuilder {
	return b.Notify(NotificationSuccess, message, 3000)
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// StatusFor maps an error class to its HTTP status.
func StatusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse builds the envelope for err. Internal errors are not shown
// to the client verbatim.
func ErrorResponse(err error) *ResponseBuilder {
	status := StatusFor(err)
	kind := core.Kind(err)
	msg := err.Error()
	if status == http.StatusRequestEntityTooLarge {
		kind, msg = "too_large", "request body too large"
	}
	switch kind {
	case "transport":
		msg = "a backing service is unavailable, please retry"
	case "internal":
		msg = "internal error"
	}
	b := NewResponse().Status(status)
	b.body.Error = &ErrorBody{Kind: kind, Message: msg}
	return b.Notify(NotificationError, msg, 5000)
}

// BadRequestError creates a 400 response for a body that could not be read.
func BadRequestError(message string) *ResponseBuilder {
	b := NewResponse().Status(http.StatusBadRequest)
	b.body.Error = &ErrorBody{Kind: "bad_request", Message: message}
	return b.Notify(NotificationError, message, 5000)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError() *ResponseBuilder {
	b := NewResponse().Status(http.StatusMethodNotAllowed)
	b.body.Error = &ErrorBody{Kind: "method_not_allowed", Message: "method not allowed"}
	return b
}

// RouteNotFoundError creates a 404 for unknown paths.
func RouteNotFoundError() *ResponseBuilder {
	b := NewResponse().Status(http.StatusNotFound)
	b.body.Error = &ErrorBody{Kind: "not_found", Message: "no such route"}
	return b
}

// TooManyRequestsError is written by the rate limiter.
func TooManyRequestsError() *ResponseBuilder {
	b := NewResponse().Status(http.StatusTooManyRequests)
	b.body.Error = &ErrorBody{Kind: "rate_limited", Message: "rate limit exceeded, please try again later"}
	return b.Notify(NotificationWarning, "Too many changes, slow down", 5000)
}
