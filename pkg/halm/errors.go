package halm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultErrorStatusCode is assumed when neither the caller nor the error
// payload carries a status code.
const DefaultErrorStatusCode = http.StatusInternalServerError

// maxRawErrorLen caps how much of a non-JSON error body is kept as a message.
const maxRawErrorLen = 512

// ErrorDetail is the error object the Helix ALM REST API returns. Errors
// generally follow this structure:
//
//	{
//	  "code": "Bad Request",
//	  "statusCode": 400,
//	  "message": "This is information why the request failed",
//	  "errorElementPath": "/path/to/the/parameter/object/that/failed"
//	}
//
// Every field is optional on the wire; absent fields decode to zero values.
type ErrorDetail struct {
	Code             string `json:"code,omitempty"`
	StatusCode       int    `json:"statusCode,omitempty"`
	Message          string `json:"message,omitempty"`
	ErrorElementPath string `json:"errorElementPath,omitempty"`
}

// APIError is the normalized form of a Helix ALM error, uniform regardless of
// which fields the server actually sent. StatusCode is always set after
// normalization; the remaining fields default to empty.
type APIError struct {
	Code             string
	StatusCode       int
	Message          string
	ErrorElementPath string

	// Errors carries secondary error objects from multi-error responses.
	Errors []ErrorDetail

	// Cause is the underlying transport error, if any (wrapped).
	Cause error
}

// Error formats the normalized error the way the REST API documents it:
// "<statusCode> - <code> - <message>". Secondary errors are appended.
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d - %s - %s", e.StatusCode, e.Code, e.Message)
	for _, d := range e.Errors {
		fmt.Fprintf(&b, "; %d - %s - %s", d.StatusCode, d.Code, d.Message)
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Cause }

// IsError reports whether the normalized status code falls outside the
// success (2xx) range.
func (e *APIError) IsError() bool { return !successStatus(e.StatusCode) }

// Detail returns the normalized values as a wire-shaped error object.
// Normalizing the result again yields an equal APIError.
func (e *APIError) Detail() ErrorDetail {
	return ErrorDetail{
		Code:             e.Code,
		StatusCode:       e.StatusCode,
		Message:          e.Message,
		ErrorElementPath: e.ErrorElementPath,
	}
}

// AsAPIError unwraps err into an *APIError when one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NormalizeError builds an APIError from a raw error payload. The payload may
// be empty or partially populated; normalization never fails.
//
// Status code precedence, highest first:
//  1. the explicit statusCode argument, when positive
//  2. the payload's own statusCode, when positive
//  3. DefaultErrorStatusCode
func NormalizeError(detail ErrorDetail, statusCode int) *APIError {
	if statusCode <= 0 {
		statusCode = detail.StatusCode
	}
	if statusCode <= 0 {
		statusCode = DefaultErrorStatusCode
	}
	return &APIError{
		Code:             detail.Code,
		StatusCode:       statusCode,
		Message:          detail.Message,
		ErrorElementPath: detail.ErrorElementPath,
	}
}

// errorEnvelope covers the shapes failed responses arrive in: a bare error
// object, {"error": {...}}, or {"errors": [...]}.
type errorEnvelope struct {
	ErrorDetail
	Error  *ErrorDetail  `json:"error"`
	Errors []ErrorDetail `json:"errors"`
}

// parseErrorBody decodes a failed response body into its primary error detail
// plus any secondary details. Bodies that are not JSON objects are folded
// into a synthetic detail carrying the raw text, so normalization never
// fails on a malformed body.
func parseErrorBody(body []byte) (ErrorDetail, []ErrorDetail) {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return ErrorDetail{}, nil
	}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		if len(raw) > maxRawErrorLen {
			raw = raw[:maxRawErrorLen]
		}
		return ErrorDetail{Message: raw}, nil
	}
	switch {
	case env.Error != nil:
		return *env.Error, nil
	case len(env.Errors) > 0:
		return env.Errors[0], env.Errors[1:]
	default:
		return env.ErrorDetail, nil
	}
}

// errorFromResponse normalizes a non-success HTTP response into an *APIError.
// The response status code takes precedence over anything in the body.
func errorFromResponse(statusCode int, body []byte) *APIError {
	detail, extra := parseErrorBody(body)
	apiErr := NormalizeError(detail, statusCode)
	apiErr.Errors = extra
	return apiErr
}
