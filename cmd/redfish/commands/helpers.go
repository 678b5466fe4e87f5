package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fivetwenty-io/redfish-client/internal/constants"
	"github.com/fivetwenty-io/redfish-client/internal/logging"
	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/fivetwenty-io/redfish-client/pkg/rfclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Config keys shared by the commands.
const (
	keyEndpoint     = "endpoint"
	keyUsername     = "username"
	keyPassword     = "password"
	keyInsecure     = "insecure"
	keyNoCache      = "no-cache"
	keyNATSURL      = "nats-url"
	keyNATSBucket   = "nats-bucket"
	keyEager        = "eager"
	keyOutput       = "output"
	keyVerbose      = "verbose"
	keySessionPath  = "session.path"
	keySessionID    = "session.id"
	keySessionToken = "session.token"

	defaultJSONIndent = 2
)

// Common static errors used throughout the commands package.
var (
	ErrEndpointNotSet    = errors.New("endpoint is not set, use --endpoint or REDFISH_ENDPOINT")
	ErrUnsupportedOutput = errors.New("unsupported output format")
	ErrNoActiveSession   = errors.New("no active session")
	ErrInvalidData       = errors.New("invalid JSON data")
	ErrFieldRequired     = errors.New("--field is required")
	ErrRequestFailed     = errors.New("request failed")
)

// connect builds a root from the current configuration. A stored session is reused when
// present; otherwise the root logs in and the returned cleanup logs out again.
func connect(ctx context.Context) (*redfish.Root, func(), error) {
	config, err := buildConfig()
	if err != nil {
		return nil, nil, err
	}

	stored := storedSession()
	if stored.Token != "" {
		root, err := rfclient.New(ctx, config)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create client: %w", err)
		}

		root.Connector().SetSessionAuthData(stored.SessionPath, stored.SessionID, stored.Token)

		return root, func() {}, nil
	}

	if config.Password == "" && config.Username != "" {
		config.Password, err = promptPassword()
		if err != nil {
			return nil, nil, err
		}
	}

	root, err := rfclient.Connect(ctx, config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	cleanup := func() {
		err := root.Logout(ctx)
		if err != nil && viper.GetBool(keyVerbose) {
			fmt.Fprintf(os.Stderr, "Warning: logout failed: %v\n", err)
		}
	}

	return root, cleanup, nil
}

// storedSession returns the session saved by the login command, if any.
func storedSession() redfish.SessionAuthData {
	token := viper.GetString(keySessionToken)
	if token == "" {
		return redfish.SessionAuthData{}
	}

	return redfish.SessionAuthData{
		Mode:        redfish.AuthModeSession,
		SessionPath: viper.GetString(keySessionPath),
		SessionID:   viper.GetString(keySessionID),
		Token:       token,
	}
}

// buildConfig assembles a client config from flags, environment and the config file.
func buildConfig() (*redfish.Config, error) {
	endpoint := viper.GetString(keyEndpoint)
	if endpoint == "" {
		return nil, ErrEndpointNotSet
	}

	lazy := !viper.GetBool(keyEager)

	config := &redfish.Config{
		Endpoint:           endpoint,
		Username:           viper.GetString(keyUsername),
		Password:           viper.GetString(keyPassword),
		InsecureSkipVerify: viper.GetBool(keyInsecure),
		LazyLoad:           &lazy,
		Debug:              viper.GetBool(keyVerbose),
	}

	config.Cache = cacheConfig()

	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	config.Logger = logger

	return config, nil
}

// cacheConfig selects the response cache: none with --no-cache, a shared NATS bucket when
// a NATS URL is configured, memory otherwise.
func cacheConfig() *redfish.CacheConfig {
	if viper.GetBool(keyNoCache) {
		return nil
	}

	config := redfish.DefaultCacheConfig()

	natsURL := viper.GetString(keyNATSURL)
	if natsURL != "" {
		config.Type = redfish.CacheTypeNATS
		config.NATS = &redfish.NATSKVConfig{
			URL:    natsURL,
			Bucket: viper.GetString(keyNATSBucket),
		}
	}

	return config
}

func newLogger() (*logging.Logger, error) {
	cfg := logging.DefaultConfig()
	if viper.GetBool(keyVerbose) {
		cfg = logging.VerboseConfig()
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		return strings.TrimSpace(line), nil
	}

	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprintln(os.Stderr)

	return string(bytePassword), nil
}

// parseData decodes a --data argument. An empty argument yields an empty object.
func parseData(data string) (interface{}, error) {
	if strings.TrimSpace(data) == "" {
		return map[string]interface{}{}, nil
	}

	var payload interface{}

	err := json.Unmarshal([]byte(data), &payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	return payload, nil
}

// parseValue interprets a command-line value as JSON when possible and as a plain
// string otherwise, so that --value 5 matches a number and --value On matches "On".
func parseValue(value string) interface{} {
	var parsed interface{}

	err := json.Unmarshal([]byte(value), &parsed)
	if err != nil {
		return value
	}

	return parsed
}

// splitField turns "Status.Health" into its path segments.
func splitField(field string) []string {
	parts := strings.Split(field, ".")

	path := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			path = append(path, part)
		}
	}

	return path
}

// renderOutput writes data in the configured output format.
func renderOutput(w io.Writer, data interface{}) error {
	switch viper.GetString(keyOutput) {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

		return encoder.Encode(data)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(data)
	case constants.FormatTable, "":
		return renderTable(w, data)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOutput, viper.GetString(keyOutput))
	}
}

func renderTable(w io.Writer, data interface{}) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	switch typed := data.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		for _, key := range keys {
			_ = table.Append(key, formatCell(typed[key]))
		}
	case []interface{}:
		for i, item := range typed {
			_ = table.Append(fmt.Sprintf("%d", i), formatCell(item))
		}
	default:
		_ = table.Append("Value", formatCell(typed))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func formatCell(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return "null"
	case string:
		return typed
	case map[string]interface{}:
		if link, ok := typed["@odata.id"].(string); ok && len(typed) == 1 {
			return link
		}
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}

	return string(encoded)
}

// toMap converts a tagged struct into the generic form renderOutput tabulates.
func toMap(v interface{}) interface{} {
	encoded, err := json.Marshal(v)
	if err != nil {
		return v
	}

	var out interface{}

	err = json.Unmarshal(encoded, &out)
	if err != nil {
		return v
	}

	return out
}

// responseSummary is what mutation commands print.
type responseSummary struct {
	Status int         `json:"status" yaml:"status"`
	Body   interface{} `json:"body,omitempty" yaml:"body,omitempty"`
}

func summarize(resp *redfish.Response) (responseSummary, error) {
	summary := responseSummary{Status: resp.Status, Body: resp.JSON}
	if !resp.IsSuccess() {
		return summary, fmt.Errorf("%w with status %d", ErrRequestFailed, resp.Status)
	}

	return summary, nil
}
