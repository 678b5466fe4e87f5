package redfish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LinkField is the reserved field naming an object's own canonical address.
const LinkField = "@odata.id"

// DefaultRootPath is the well-known address of the service root document.
const DefaultRootPath = "/redfish/v1"

// Connector is the transport contract used by resources. Both the plain connector and
// the caching decorator implement it.
type Connector interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string, payload interface{}) (*Response, error)
	Patch(ctx context.Context, path string, payload interface{}) (*Response, error)
	Put(ctx context.Context, path string, payload interface{}) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)

	// Reset drops a cached entry for path, or every entry when path is empty.
	// Connectors without a cache treat it as a no-op.
	Reset(ctx context.Context, path string) error
}

// AuthConnector is a Connector that also owns the login/logout state machine.
type AuthConnector interface {
	Connector

	SetSessionAuthData(sessionPath, sessionID, token string)
	SetBasicAuthData(ctx context.Context, path string) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	SessionAuthData() SessionAuthData
}

// AuthMode identifies which authentication scheme a connector is configured for.
type AuthMode int

const (
	// AuthModeNone means no authentication data has been configured yet.
	AuthModeNone AuthMode = iota
	// AuthModeBasic sends an Authorization: Basic header on every request.
	AuthModeBasic
	// AuthModeSession uses a server-side session and its X-Auth-Token.
	AuthModeSession
)

// String implements fmt.Stringer.
func (m AuthMode) String() string {
	switch m {
	case AuthModeBasic:
		return "basic"
	case AuthModeSession:
		return "session"
	default:
		return "none"
	}
}

// SessionAuthData is a snapshot of a connector's authentication state.
type SessionAuthData struct {
	Mode        AuthMode `json:"mode"         yaml:"mode"`
	SessionPath string   `json:"session_path" yaml:"session_path"`
	SessionID   string   `json:"session_id"   yaml:"session_id"`
	Token       string   `json:"-"            yaml:"-"`
}

// Response is the result of a single HTTP exchange.
//
// Header keys are lower-cased. JSON holds the parsed body, or nil when the body is
// empty or not valid JSON.
type Response struct {
	Status  int
	Headers map[string]string
	JSON    interface{}
	Raw     []byte
}

// Header returns the value of the named header, matched case-insensitively.
func (r *Response) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}

	return r.Headers[strings.ToLower(name)]
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v interface{}) error {
	err := json.Unmarshal(r.Raw, v)
	if err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for connecting to a Redfish service.
//
// # Authentication
//
// Username and Password are always required by the service for anything beyond the
// root document. Whether they are exchanged for a session token or sent as a Basic
// credential on every request is decided at login time from the root document: if it
// links a sessions collection, session authentication is used.
//
// # Caching
//
// When Cache is set (and its type is not CacheTypeNone), successful GET responses are
// cached by path until a resource is refreshed. Without it every read hits the service.
type Config struct {
	// Endpoint: base URL of the service (e.g., "https://bmc.example.com").
	// rfclient.New trims a trailing slash and adds "https://" if no scheme is present.
	Endpoint string
	// Username: account name used for session creation or Basic authentication.
	Username string
	// Password: account password.
	Password string

	// RootPath: address of the service root. Defaults to DefaultRootPath.
	RootPath string
	// LazyLoad: when true, resources are fetched only when their content is needed.
	// rfclient.New treats a nil pointer as true.
	LazyLoad *bool
	// Cache: optional response cache for GET requests.
	Cache *CacheConfig

	// HTTPTimeout: per-request timeout of the underlying HTTP client.
	HTTPTimeout time.Duration
	// InsecureSkipVerify: disables TLS certificate verification. BMCs frequently ship
	// self-signed certificates.
	InsecureSkipVerify bool
	// RetryMax: retries of transient transport failures (>=500, 429, connection errors).
	// Zero disables them, which is the default.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMax time.Duration
	// RateLimit: maximum requests per second; zero means unlimited.
	RateLimit float64
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Debug: enables HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
}
