package redfish_test

import (
	"context"
	"testing"

	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAuthConnector records the authentication calls made by Root.
type MockAuthConnector struct {
	*MockConnector

	data      redfish.SessionAuthData
	basicPath string
	logins    int
	logouts   int
	loginErr  error
}

func (m *MockAuthConnector) SetSessionAuthData(sessionPath, sessionID, token string) {
	m.data = redfish.SessionAuthData{
		Mode:        redfish.AuthModeSession,
		SessionPath: sessionPath,
		SessionID:   sessionID,
		Token:       token,
	}
}

func (m *MockAuthConnector) SetBasicAuthData(_ context.Context, path string) error {
	m.data = redfish.SessionAuthData{Mode: redfish.AuthModeBasic}
	m.basicPath = path

	return nil
}

func (m *MockAuthConnector) Login(_ context.Context) error {
	m.logins++

	return m.loginErr
}

func (m *MockAuthConnector) Logout(_ context.Context) error {
	m.logouts++

	return nil
}

func (m *MockAuthConnector) SessionAuthData() redfish.SessionAuthData {
	return m.data
}

func newMockAuthConnector(root string) *MockAuthConnector {
	return &MockAuthConnector{
		MockConnector: NewMockConnector(map[string][]string{
			"/redfish/v1":           {root},
			"/redfish/v1/Systems/1": {systemDoc},
		}),
	}
}

func TestRoot_Login(t *testing.T) {
	t.Parallel()

	t.Run("session", func(t *testing.T) {
		t.Parallel()

		conn := newMockAuthConnector(`{
			"@odata.id": "/redfish/v1",
			"Systems": {"@odata.id": "/redfish/v1/Systems"},
			"Links": {"Sessions": {"@odata.id": "/redfish/v1/SessionService/Sessions"}}
		}`)

		root, err := redfish.NewRoot(context.Background(), conn, "")
		require.NoError(t, err)
		assert.Equal(t, redfish.DefaultRootPath, root.Address())

		require.NoError(t, root.Login(context.Background()))
		assert.Equal(t, redfish.AuthModeSession, root.SessionAuthData().Mode)
		assert.Equal(t, "/redfish/v1/SessionService/Sessions", root.SessionAuthData().SessionPath)
		assert.Equal(t, 1, conn.logins)
	})

	t.Run("basic probes first linked field in document order", func(t *testing.T) {
		t.Parallel()

		conn := newMockAuthConnector(`{
			"@odata.id": "/redfish/v1",
			"RedfishVersion": "1.6.0",
			"Systems": {"@odata.id": "/redfish/v1/Systems"},
			"Chassis": {"@odata.id": "/redfish/v1/Chassis"},
			"AccountService": {"@odata.id": "/redfish/v1/AccountService"}
		}`)

		root, err := redfish.NewRoot(context.Background(), conn, "/redfish/v1")
		require.NoError(t, err)

		require.NoError(t, root.Login(context.Background()))
		assert.Equal(t, redfish.AuthModeBasic, root.SessionAuthData().Mode)
		assert.Equal(t, "/redfish/v1/Systems", conn.basicPath)
		assert.Equal(t, 1, conn.logins)
	})

	t.Run("no auth endpoint", func(t *testing.T) {
		t.Parallel()

		conn := newMockAuthConnector(`{"@odata.id": "/redfish/v1", "Name": "Root"}`)

		root, err := redfish.NewRoot(context.Background(), conn, "")
		require.NoError(t, err)

		require.ErrorIs(t, root.Login(context.Background()), redfish.ErrNoAuthEndpoint)
		assert.Zero(t, conn.logins)
	})

	t.Run("login failure", func(t *testing.T) {
		t.Parallel()

		conn := newMockAuthConnector(`{"@odata.id": "/redfish/v1", "Links": {"Sessions": {"@odata.id": "/sessions"}}}`)
		conn.loginErr = &redfish.AuthError{Status: 401}

		root, err := redfish.NewRoot(context.Background(), conn, "")
		require.NoError(t, err)

		err = root.Login(context.Background())
		require.Error(t, err)
		assert.True(t, redfish.IsAuthError(err))
	})
}

func TestRoot_Logout(t *testing.T) {
	t.Parallel()

	conn := newMockAuthConnector(`{"@odata.id": "/redfish/v1"}`)

	root, err := redfish.NewRoot(context.Background(), conn, "")
	require.NoError(t, err)

	require.NoError(t, root.Logout(context.Background()))
	assert.Equal(t, 1, conn.logouts)
	assert.Empty(t, conn.calls)
}

func TestRoot_Find(t *testing.T) {
	t.Parallel()

	t.Run("lazy", func(t *testing.T) {
		t.Parallel()

		conn := newMockAuthConnector(`{"@odata.id": "/redfish/v1"}`)

		root, err := redfish.NewRoot(context.Background(), conn, "")
		require.NoError(t, err)

		system, err := root.Find(context.Background(), "/redfish/v1/Systems/1")
		require.NoError(t, err)
		assert.True(t, system.IsStub())
		assert.Empty(t, conn.calls)

		state, err := system.Get(context.Background(), "PowerState")
		require.NoError(t, err)
		assert.Equal(t, "On", state.Scalar())
	})

	t.Run("eager", func(t *testing.T) {
		t.Parallel()

		conn := newMockAuthConnector(`{"@odata.id": "/redfish/v1"}`)

		root, err := redfish.NewRoot(context.Background(), conn, "", redfish.WithLazy(false))
		require.NoError(t, err)

		system, err := root.Find(context.Background(), "/redfish/v1/Systems/1")
		require.NoError(t, err)
		assert.False(t, system.IsStub())
		assert.Len(t, conn.Calls("GET"), 2)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		conn := newMockAuthConnector(`{"@odata.id": "/redfish/v1"}`)

		root, err := redfish.NewRoot(context.Background(), conn, "", redfish.WithLazy(false))
		require.NoError(t, err)

		_, err = root.Find(context.Background(), "/redfish/v1/Systems/9")
		require.ErrorIs(t, err, redfish.ErrResourceNotFound)
	})
}
