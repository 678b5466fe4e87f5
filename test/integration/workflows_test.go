//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/fivetwenty-io/redfish-client/pkg/rfclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceRoot(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	root := config.Connect(t)
	ctx := context.Background()

	assert.NotEqual(t, redfish.AuthModeNone, root.SessionAuthData().Mode)

	version, err := root.Get(ctx, "RedfishVersion")
	require.NoError(t, err)

	s, ok := version.String()
	require.True(t, ok)
	assert.NotEmpty(t, s)
}

func TestSystemWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	root := config.Connect(t)
	ctx := context.Background()

	t.Run("members resolve", func(t *testing.T) {
		members, ok, err := root.Dig(ctx, "Systems", "Members")
		require.NoError(t, err)
		require.True(t, ok)

		for _, member := range members.Array() {
			require.Equal(t, redfish.KindLink, member.Kind())

			_, err := member.Resource().Get(ctx, "Id")
			require.NoError(t, err)
		}
	})

	t.Run("wait for current power state", func(t *testing.T) {
		system, err := root.Find(ctx, config.SystemID)
		require.NoError(t, err)

		power, err := system.Get(ctx, "PowerState")
		require.NoError(t, err)

		err = system.WaitFor(ctx, []string{"PowerState"}, power.Scalar(),
			redfish.WithPollInterval(time.Second),
			redfish.WithTimeout(10*time.Second))
		require.NoError(t, err)
	})

	t.Run("reset action is advertised", func(t *testing.T) {
		system, err := root.Find(ctx, config.SystemID)
		require.NoError(t, err)

		_, found, err := system.FindObject(ctx, "#ComputerSystem.Reset")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("missing resource", func(t *testing.T) {
		missing, err := root.Find(ctx, "/redfish/v1/Systems/does-not-exist")
		require.NoError(t, err)

		_, err = missing.Get(ctx, "Id")
		require.Error(t, err)
		assert.True(t, redfish.IsNotFound(err))
	})
}

func TestCachedSession(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	cfg := config.ClientConfig()
	cfg.Cache = redfish.DefaultCacheConfig()

	ctx := context.Background()

	root, err := rfclient.Connect(ctx, cfg)
	require.NoError(t, err)

	defer func() { _ = root.Logout(ctx) }()

	system, err := root.Find(ctx, config.SystemID)
	require.NoError(t, err)

	_, err = system.Raw(ctx)
	require.NoError(t, err)
	require.NoError(t, system.Refresh(ctx))

	_, err = system.Get(ctx, "PowerState")
	require.NoError(t, err)
}

func TestBadCredentials(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	cfg := config.ClientConfig()
	cfg.Password = "definitely-not-the-password"

	_, err := rfclient.Connect(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, redfish.IsAuthError(err))
}
