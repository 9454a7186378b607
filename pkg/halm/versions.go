package halm

import (
	"context"
	"net/http"
)

// Versions describes the REST API and the Helix ALM server behind it. The
// resource requires no authentication, which makes it the standard
// connectivity probe.
type Versions struct {
	RESTAPIVersion string `json:"restAPIVersion,omitempty"`
	ServerVersion  string `json:"helixALMServerVersion,omitempty"`
}

// Versions fetches version information from the server.
func (c *Client) Versions(ctx context.Context) (*Versions, error) {
	var out Versions
	if _, err := c.send(ctx, opVersions, http.MethodGet, "versions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
