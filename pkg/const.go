package pkg

const (
	HeaderRequestId     string = "X-Request-Id"
	HeaderAuthorization string = "Authorization"
	HeaderContentType   string = "Content-Type"
)

const (
	RequestId string = "request_id"
	Operation string = "operation"
)

// ContentTypeJSON is the request/response media type the Helix ALM REST API speaks.
const ContentTypeJSON string = "application/json"

// Mode selects logger and error-detail behavior. Defaults to debug when unset.
const (
	EnvMode     string = "HALM_MODE"
	ModeRelease string = "release"
	ModeDebug   string = "debug"
)
