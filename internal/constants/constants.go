package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits.
const (
	// DefaultRetryWaitMin is the minimum wait time between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between transport retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Protocol headers.
const (
	// HeaderAccept is sent on every request.
	HeaderAccept = "Accept"

	// HeaderODataVersion is sent on every request.
	HeaderODataVersion = "OData-Version"

	// HeaderContentType is sent with request bodies.
	HeaderContentType = "Content-Type"

	// HeaderUserAgent overrides the Go default user agent.
	HeaderUserAgent = "User-Agent"

	// HeaderAuthorization carries the Basic credential.
	HeaderAuthorization = "Authorization"

	// HeaderAuthToken carries the session token.
	HeaderAuthToken = "X-Auth-Token"

	// HeaderLocation holds the address of a created session.
	HeaderLocation = "Location"

	// MediaTypeJSON is the only accepted payload type.
	MediaTypeJSON = "application/json"

	// ODataVersion is the protocol version sent in HeaderODataVersion.
	ODataVersion = "4.0"

	// DefaultUserAgent identifies this client.
	DefaultUserAgent = "redfish-client-go"
)

// HTTP status codes the auth state machine keys on.
const (
	// HTTPStatusOK is the only successful Basic probe and resource fetch status.
	HTTPStatusOK = 200

	// HTTPStatusCreated is the only successful session creation status.
	HTTPStatusCreated = 201

	// HTTPStatusUnauthorized triggers a single relogin.
	HTTPStatusUnauthorized = 401
)

// Polling defaults.
const (
	// DefaultPollInterval is the delay between WaitFor attempts.
	DefaultPollInterval = 3 * time.Second

	// DefaultWaitTimeout bounds a WaitFor call.
	DefaultWaitTimeout = 15 * time.Second
)

// Cache defaults.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
