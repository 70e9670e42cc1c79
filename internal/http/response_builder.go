// Package http serves the dashboard report API.
//
// This file implements a small builder for JSON responses so every handler
// writes bodies, headers and errors the same way.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"despesas/internal/core"
	"despesas/internal/report"
)

// Error codes returned in ErrorBody.Code.
const (
	CodeBadRequest      = "bad_request"
	CodeInvalidPeriod   = "invalid_period"
	CodeUnknownCard     = "unknown_card"
	CodeDataUnavailable = "data_unavailable"
	CodeStaleResult     = "stale_result"
	CodeTimeout         = "timeout"
	CodeRateLimited     = "rate_limited"
	CodeNotReady        = "not_ready"
	CodeInternal        = "internal"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Scope     string `json:"scope,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
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

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) error {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.body == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message, Code: code})
}

// ErrorFor maps a query error onto its response. Errors without a known
// mapping become a 500 whose message does not leak internals.
func ErrorFor(err error) *JSONResponseBuilder {
	var unavailable *report.DataUnavailableError
	switch {
	case errors.As(err, &unavailable):
		return NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			Header("Retry-After", "5").
			Body(ErrorBody{
				Error: fmt.Sprintf("%s data unavailable for %s", unavailable.Scope, unavailable.Card),
				Code:  CodeDataUnavailable,
				Scope: unavailable.Scope,
			})
	case errors.Is(err, core.ErrUnknownCard):
		return ErrorResponse(http.StatusNotFound, CodeUnknownCard, err.Error())
	case errors.Is(err, core.ErrInvalidMonth), errors.Is(err, core.ErrInvalidYear):
		return ErrorResponse(http.StatusBadRequest, CodeInvalidPeriod, err.Error())
	case errors.Is(err, report.ErrStaleResult):
		return ErrorResponse(http.StatusConflict, CodeStaleResult, err.Error())
	case errors.Is(err, report.ErrNoResult):
		return ErrorResponse(http.StatusConflict, CodeNotReady, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(http.StatusGatewayTimeout, CodeTimeout, "request timed out")
	default:
		return ErrorResponse(http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
