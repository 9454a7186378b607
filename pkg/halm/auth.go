package halm

import (
	"github.com/nimeshabuddhika/helix-alm-go/pkg/utils"
)

// Credentials supplies the Authorization header value for outgoing requests.
type Credentials interface {
	authorization() string
}

// BasicAuth authenticates with a Helix ALM username and password. The REST
// API expects the lowercase "basic" scheme with base64(user:pass).
type BasicAuth struct {
	Username string
	Password string
}

func (b BasicAuth) authorization() string {
	return "basic " + utils.EncodeString(b.Username+":"+b.Password)
}

// TokenAuth authenticates with an access token previously issued by the
// {project}/token resource.
type TokenAuth struct {
	AccessToken string
}

func (t TokenAuth) authorization() string {
	return "Bearer " + t.AccessToken
}

// Auth converts a fetched token into client credentials.
func (t *AccessToken) Auth() TokenAuth {
	return TokenAuth{AccessToken: t.AccessToken}
}
