//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/fivetwenty-io/redfish-client/pkg/rfclient"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Endpoint string
	Username string
	Password string
	SystemID string
	Insecure bool
	Verbose  bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	systemID := os.Getenv("REDFISH_SYSTEM")
	if systemID == "" {
		systemID = "/redfish/v1/Systems/1"
	}

	return &TestConfig{
		Endpoint: os.Getenv("REDFISH_ENDPOINT"),
		Username: os.Getenv("REDFISH_USERNAME"),
		Password: os.Getenv("REDFISH_PASSWORD"),
		SystemID: systemID,
		Insecure: os.Getenv("REDFISH_INSECURE") == "true",
		Verbose:  os.Getenv("REDFISH_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips test if required config is missing.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Endpoint == "" {
		t.Skip("REDFISH_ENDPOINT not set, skipping integration test")
	}

	if config.Username == "" || config.Password == "" {
		t.Skip("REDFISH_USERNAME or REDFISH_PASSWORD not set, skipping integration test")
	}
}

// ClientConfig builds a client configuration for the target service.
func (config *TestConfig) ClientConfig() *redfish.Config {
	return &redfish.Config{
		Endpoint:           config.Endpoint,
		Username:           config.Username,
		Password:           config.Password,
		InsecureSkipVerify: config.Insecure,
		HTTPTimeout:        30 * time.Second,
		Debug:              config.Verbose,
	}
}

// Connect logs in to the target service and logs out when the test ends.
func (config *TestConfig) Connect(t *testing.T) *redfish.Root {
	t.Helper()

	cfg := config.ClientConfig()
	cfg.Logger = &testLogger{t: t}

	root, err := rfclient.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to connect to %s: %v", config.Endpoint, err)
	}

	t.Cleanup(func() {
		if err := root.Logout(context.Background()); err != nil {
			t.Logf("logout failed: %v", err)
		}
	})

	return root
}

type testLogger struct {
	t *testing.T
}

func (l *testLogger) log(level, msg string, fields map[string]interface{}) {
	if l.t == nil {
		return
	}

	l.t.Logf("[%s] %s %v", level, msg, fields)
}

func (l *testLogger) Debug(msg string, fields map[string]interface{}) { l.log("DEBUG", msg, fields) }
func (l *testLogger) Info(msg string, fields map[string]interface{})  { l.log("INFO", msg, fields) }
func (l *testLogger) Warn(msg string, fields map[string]interface{})  { l.log("WARN", msg, fields) }
func (l *testLogger) Error(msg string, fields map[string]interface{}) { l.log("ERROR", msg, fields) }
