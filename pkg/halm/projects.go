package halm

import (
	"context"
	"net/http"
	"net/url"
)

// Project is one Helix ALM project visible to the authenticated user.
type Project struct {
	Name string `json:"name"`
}

// ProjectList is the envelope returned by the projects resource.
type ProjectList struct {
	Projects []Project `json:"projects"`
}

// Projects lists the projects the configured user can access. The call
// authenticates with the client credentials directly, no project token is
// needed.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var out ProjectList
	if _, err := c.send(ctx, opProjects, http.MethodGet, "projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// projectResource builds "{project}/{rest}" with the project name made URL
// safe. Helix ALM project names routinely contain spaces.
func projectResource(project, rest string) string {
	return url.PathEscape(project) + "/" + rest
}
