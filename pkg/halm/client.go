package halm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/helix-alm-go/pkg"
	"github.com/nimeshabuddhika/helix-alm-go/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is where a local Helix ALM REST API listens out of the box.
const DefaultBaseURL = "https://localhost:8443/helix-alm/api/v0/"

const (
	defaultMaxRetries   = 2
	defaultRetryElapsed = 20 * time.Second
	defaultUserAgent    = "helix-alm-go"

	retryInitialInterval = 250 * time.Millisecond
)

// operation tags keep metric label cardinality bounded; typed calls report
// their resource template rather than concrete URLs.
const (
	opSend             = "send"
	opVersions         = "versions"
	opProjects         = "projects"
	opToken            = "token"
	opIssuesList       = "issues.list"
	opIssueGet         = "issues.get"
	opIssueUpdate      = "issues.update"
	opIssueEvents      = "issues.events.add"
	opTestRunsGenerate = "testruns.generate"
)

// Config holds client settings. Zero values fall back to defaults; BaseURL
// and Credentials are the only fields most callers set.
type Config struct {
	// BaseURL of the Helix ALM REST API, e.g. https://host:8443/helix-alm/api/v0/.
	BaseURL string

	// Credentials for the Authorization header. Optional; unauthenticated
	// resources such as versions work without them.
	Credentials Credentials

	// Logger receives structured request logs. Defaults to a no-op logger.
	Logger *zap.Logger

	// InsecureSkipVerify disables TLS verification for installs running
	// with self-signed certificates.
	InsecureSkipVerify bool

	// Timeout caps one request attempt end to end.
	Timeout time.Duration

	// HTTPClient overrides the built transport entirely (used by tests).
	HTTPClient *http.Client

	// MaxRetries bounds additional attempts for transient failures on GET
	// requests; negative disables retries. RetryElapsed caps the total
	// retry window.
	MaxRetries   int
	RetryElapsed time.Duration

	// RateLimit throttles outgoing requests (requests per second) with a
	// burst of RateBurst; zero means unlimited.
	RateLimit float64
	RateBurst int

	// UserAgent attached to every request.
	UserAgent string
}

// Client talks to one Helix ALM REST API server. It is safe for concurrent
// use; WithCredentials returns cheap per-credential copies.
type Client struct {
	baseURL      string
	creds        Credentials
	http         *http.Client
	logger       *zap.Logger
	limiter      *rate.Limiter
	maxRetries   int
	retryElapsed time.Duration
	userAgent    string
}

// New builds a Client for the configured server.
func New(cfg Config) (*Client, error) {
	sanitizeConfig(&cfg)

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = utils.NewHTTPClient(
			utils.WithClientTimeout(cfg.Timeout),
			utils.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		creds:        cfg.Credentials,
		http:         httpClient,
		logger:       cfg.Logger,
		limiter:      limiter,
		maxRetries:   cfg.MaxRetries,
		retryElapsed: cfg.RetryElapsed,
		userAgent:    cfg.UserAgent,
	}, nil
}

// sanitizeConfig fills defaults so odd caller values cannot wedge the client.
func sanitizeConfig(cfg *Config) {
	if utils.IsEmpty(cfg.BaseURL) {
		cfg.BaseURL = DefaultBaseURL
	}
	// relative resources concatenate onto the base; keep it slash-terminated
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryElapsed <= 0 {
		cfg.RetryElapsed = defaultRetryElapsed
	}
	if utils.IsEmpty(cfg.UserAgent) {
		cfg.UserAgent = defaultUserAgent
	}
}

// WithCredentials returns a copy of the client that authenticates with the
// given credentials, e.g. a token fetched via ProjectToken.
func (c *Client) WithCredentials(creds Credentials) *Client {
	clone := *c
	clone.creds = creds
	return &clone
}

// Send dispatches one request against the REST API. resource is relative to
// the base URL (example: "issues/15/events" under a project prefix). body is
// JSON-encoded when non-nil; out receives the decoded response body on
// success when non-nil. Non-2xx responses come back as the raw Response plus
// a normalized *APIError.
func (c *Client) Send(ctx context.Context, method, resource string, body, out any) (*Response, error) {
	return c.send(ctx, opSend, method, resource, body, out)
}

func (c *Client) send(ctx context.Context, op, method, resource string, body, out any) (*Response, error) {
	requestID := uuid.New().String()
	logger := c.logger.With(
		zap.String(pkg.RequestId, requestID),
		zap.String(pkg.Operation, op),
		zap.String("method", method),
		zap.String("resource", resource),
	)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	start := time.Now()
	res, err := c.attempt(ctx, method, resource, payload, requestID)
	if err != nil {
		// Server unreachable or the request never completed: synthesize a
		// normalized error with the default status and the transport cause.
		apiErr := NormalizeError(ErrorDetail{Message: err.Error()}, 0)
		apiErr.Cause = err
		observeRequest(op, method, apiErr.StatusCode, start)
		logger.Error("request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, apiErr
	}

	observeRequest(op, method, res.StatusCode, start)
	if !res.IsSuccess() {
		apiErr := errorFromResponse(res.StatusCode, res.Data)
		logger.Warn("api error",
			zap.Int("status", res.StatusCode),
			zap.String("code", apiErr.Code),
			zap.String("message", apiErr.Message),
			zap.String("element", apiErr.ErrorElementPath),
		)
		return res, apiErr
	}

	logger.Debug("request completed",
		zap.Int("status", res.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	if out != nil && res.HasData() {
		if err := res.Decode(out); err != nil {
			return res, err
		}
	}
	return res, nil
}

// attempt runs the request with the retry policy: transient failures on GET
// requests are retried with exponential backoff, everything else is a single
// shot. A response is returned even when its status is an error so the
// caller can normalize it.
func (c *Client) attempt(ctx context.Context, method, resource string, payload []byte, requestID string) (*Response, error) {
	retryable := method == http.MethodGet && c.maxRetries > 0

	var res *Response
	operation := func() error {
		res = nil
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		req, err := c.newRequest(ctx, method, resource, payload, requestID)
		if err != nil {
			return backoff.Permanent(err)
		}
		httpRes, err := c.http.Do(req)
		if err != nil {
			if !retryable || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		data, readErr := io.ReadAll(httpRes.Body)
		_ = httpRes.Body.Close()
		if readErr != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", readErr))
		}
		res = &Response{StatusCode: httpRes.StatusCode, Data: data, RequestID: requestID}
		if retryable && retryableStatus(httpRes.StatusCode) {
			return fmt.Errorf("transient status %d from %s", httpRes.StatusCode, resource)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxElapsedTime = c.retryElapsed
	tries := uint64(0)
	if retryable {
		tries = uint64(c.maxRetries)
	}
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, tries), ctx))
	if err != nil && res == nil {
		return nil, err
	}
	// Retries exhausted on a transient status: hand the last response back
	// for normalization instead of the marker error.
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, method, resource string, payload []byte, requestID string) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+resource, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", resource, err)
	}
	if c.creds != nil {
		req.Header.Set(pkg.HeaderAuthorization, c.creds.authorization())
	}
	if payload != nil {
		req.Header.Set(pkg.HeaderContentType, pkg.ContentTypeJSON)
	}
	req.Header.Set(pkg.HeaderRequestId, requestID)
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// retryableStatus reports statuses worth retrying: throttling and gateway
// hiccups. Plain 500s are not retried; the ALM server uses them for
// permanent failures too.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
