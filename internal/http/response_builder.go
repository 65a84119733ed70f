// Package http exposes the category and expense services as a JSON API.
//
// This file implements the Builder Pattern for JSON responses and the
// translation of service errors into status codes and bodies.

package http

import (
	"encoding/json"
	"net/http"

	"expenses/internal/core"
	"expenses/internal/log"
)

const msgInternal = "internal server error"

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter. 204 responses
// never carry a body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	data, err := json.Marshal(b.body)
	if err != nil {
		data = []byte(`{"error":"` + msgInternal + `"}`)
		b.statusCode = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(data, '\n'))
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// statusFor maps a service error onto its HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case isValidation(err):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders err for the client. Internal failures are opaque.
func errorBody(err error) errorResponse {
	if v, ok := core.AsValidation(err); ok {
		return errorResponse{Error: "validation failed", Fields: v.Fields}
	}
	if core.IsNotFound(err) {
		return errorResponse{Error: "not found"}
	}
	return errorResponse{Error: msgInternal}
}

func isValidation(err error) bool {
	_, ok := core.AsValidation(err)
	return ok
}

// ErrorResponse writes the response for err. Unexpected failures are logged
// with the request-scoped logger.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeInternal)
	}
	NewJSONResponse().Status(status).JSON(errorBody(err)).Write(w)
}

// UnauthorizedError writes a 401 with a bearer challenge.
func UnauthorizedError(w http.ResponseWriter, message string) {
	NewJSONResponse().
		Status(http.StatusUnauthorized).
		Header("WWW-Authenticate", `Bearer realm="expenses"`).
		JSON(errorResponse{Error: message}).
		Write(w)
}

// TooManyRequestsError writes a 429 once a client exceeds the write limit.
func TooManyRequestsError(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().
		Status(http.StatusTooManyRequests).
		JSON(errorResponse{Error: "rate limit exceeded, try again later"}).
		Write(w)
}
