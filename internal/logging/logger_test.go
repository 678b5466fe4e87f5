package logging_test

import (
	"testing"

	"github.com/fivetwenty-io/redfish-client/internal/logging"
	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_Fields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)

	var logger redfish.Logger = logging.Wrap(zap.New(core))

	logger.Debug("HTTP Request", map[string]interface{}{"path": "/redfish/v1", "method": "GET"})
	logger.Info("session created", map[string]interface{}{"session": "/sessions/1"})
	logger.Warn("cache store failed", nil)
	logger.Error("failed", map[string]interface{}{"status": 500})

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, "HTTP Request", entries[0].Message)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, map[string]interface{}{"method": "GET", "path": "/redfish/v1"}, entries[0].ContextMap())

	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Empty(t, entries[2].Context)
	assert.Equal(t, zap.ErrorLevel, entries[3].Level)
	assert.Equal(t, int64(500), entries[3].ContextMap()["status"])
}

func TestNew(t *testing.T) {
	t.Parallel()

	logger, err := logging.New(logging.DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = logging.New(logging.VerboseConfig())
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = logging.New(logging.Config{Level: "loud", OutputPaths: []string{"stderr"}})
	require.Error(t, err)

	logging.NewNop().Info("discarded", nil)
}
