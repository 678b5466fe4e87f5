// Package http implements the HTTP transport shared by every connector: default
// protocol headers, JSON request bodies, response normalization and the mapping of
// connection failures to redfish.InaccessibleError.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fivetwenty-io/redfish-client/internal/constants"
	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Logger is the logging contract of the transport.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request describes a single call relative to the client's base URL.
type Request struct {
	Method  string
	Path    string
	Body    interface{}
	Headers map[string]string
}

// Client sends requests to one service. Its default headers are instance state: two
// clients never share them.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
	headers    map[string]string
	limiter    *rate.Limiter
	logger     Logger
	debug      bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug output and transport warnings.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.headers[constants.HeaderUserAgent] = userAgent
	}
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		transport, ok := c.httpClient.HTTPClient.Transport.(*http.Transport)
		if !ok {
			return
		}

		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}

		transport.TLSClientConfig.InsecureSkipVerify = skip // #nosec G402 -- opt-in for self-signed BMC certificates
	}
}

// WithRetryConfig enables retries of transient failures (connection errors, 429, 5xx).
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithRateLimit caps the request rate. A non-positive rps means unlimited.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil

			return
		}

		burst := int(rps)
		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	// Hand back the last response (or transport error) instead of a synthetic error so
	// that non-2xx statuses reach the caller as ordinary responses.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: retryClient,
		headers: map[string]string{
			constants.HeaderAccept:       constants.MediaTypeJSON,
			constants.HeaderODataVersion: constants.ODataVersion,
			constants.HeaderUserAgent:    constants.DefaultUserAgent,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the address requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHeader installs a header sent with every subsequent request.
func (c *Client) SetHeader(key, value string) {
	c.headers[http.CanonicalHeaderKey(key)] = value
}

// RemoveHeader removes a previously installed header.
func (c *Client) RemoveHeader(key string) {
	delete(c.headers, http.CanonicalHeaderKey(key))
}

// Header returns the value of an installed header.
func (c *Client) Header(key string) string {
	return c.headers[http.CanonicalHeaderKey(key)]
}

// Do sends req and returns the normalized response. Any status code is a valid
// response; only transport failures produce an error.
func (c *Client) Do(ctx context.Context, req *Request) (*redfish.Response, error) {
	url := c.baseURL + req.Path

	var body []byte

	if req.Body != nil {
		var err error

		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, url, bodyOrNil(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	if body != nil {
		httpReq.Header.Set(constants.HeaderContentType, constants.MediaTypeJSON)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.limiter != nil {
		err = c.limiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	c.logDebug("HTTP Request", map[string]interface{}{
		"method": req.Method,
		"path":   req.Path,
	})

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ctx.Err())
		}

		return nil, &redfish.InaccessibleError{URL: url, Err: err}
	}

	defer func() {
		closeErr := httpResp.Body.Close()
		if closeErr != nil && c.logger != nil {
			c.logger.Warn("failed to close response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &redfish.InaccessibleError{URL: url, Err: fmt.Errorf("reading response body: %w", err)}
	}

	resp := newResponse(httpResp, raw)

	c.logDebug("HTTP Response", map[string]interface{}{
		"method":   req.Method,
		"path":     req.Path,
		"status":   resp.Status,
		"duration": time.Since(start).String(),
	})

	return resp, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (*redfish.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path})
}

// Post issues a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*redfish.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request with an optional JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*redfish.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch issues a PATCH request with an optional JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*redfish.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*redfish.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) logDebug(msg string, fields map[string]interface{}) {
	if c.debug && c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

// bodyOrNil keeps retryablehttp from sending an empty body on GET and DELETE.
func bodyOrNil(body []byte) interface{} {
	if body == nil {
		return nil
	}

	return bytes.NewReader(body)
}

func newResponse(httpResp *http.Response, raw []byte) *redfish.Response {
	headers := make(map[string]string, len(httpResp.Header))
	for key, values := range httpResp.Header {
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}

	return &redfish.Response{
		Status:  httpResp.StatusCode,
		Headers: headers,
		JSON:    parseJSON(raw),
		Raw:     raw,
	}
}

func parseJSON(raw []byte) interface{} {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var data interface{}

	err := json.Unmarshal(raw, &data)
	if err != nil {
		return nil
	}

	return data
}
