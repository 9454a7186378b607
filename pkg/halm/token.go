package halm

import (
	"context"
	"net/http"
)

// AccessToken is a project-scoped token issued by the token resource. Pass
// it to subsequent requests through Auth.
type AccessToken struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType,omitempty"`
	ExpiresOn   int64  `json:"expiresOn,omitempty"`
}

// ProjectToken fetches an access token for the given project using the
// client's configured credentials, typically BasicAuth.
func (c *Client) ProjectToken(ctx context.Context, project string) (*AccessToken, error) {
	var out AccessToken
	if _, err := c.send(ctx, opToken, http.MethodGet, projectResource(project, "token"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
