package halm

import (
	"encoding/json"
	"fmt"
)

// Response wraps a Helix ALM REST API result: the HTTP status code and the
// raw response body, plus the request id the client attached for tracing.
type Response struct {
	StatusCode int
	Data       json.RawMessage
	RequestID  string
}

func successStatus(code int) bool { return code >= 200 && code < 300 }

// IsSuccess reports whether the response indicated success.
func (r *Response) IsSuccess() bool { return successStatus(r.StatusCode) }

// HasData reports whether the response carried a body.
func (r *Response) HasData() bool { return len(r.Data) > 0 }

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if !r.HasData() {
		return fmt.Errorf("response has no data")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
