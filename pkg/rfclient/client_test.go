package rfclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/fivetwenty-io/redfish-client/pkg/rfclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBMC is a minimal Redfish service with session authentication.
type fakeBMC struct {
	mu       sync.Mutex
	token    string
	hits     map[string]int
	sessions bool
	power    string
}

func newFakeBMC(t *testing.T, sessions bool) (*fakeBMC, *httptest.Server) {
	t.Helper()

	bmc := &fakeBMC{hits: make(map[string]int), sessions: sessions, power: "On"}
	server := httptest.NewServer(http.HandlerFunc(bmc.serve))
	t.Cleanup(server.Close)

	return bmc, server
}

func (b *fakeBMC) Hits(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.hits[key]
}

func (b *fakeBMC) ExpireSession() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.token = "expired-" + b.token
}

func (b *fakeBMC) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hits[r.Method+" "+r.URL.Path]++

	write := func(status int, body interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	authorized := func() bool {
		if b.sessions {
			return b.token != "" && r.Header.Get("X-Auth-Token") == b.token
		}

		user, pass, ok := r.BasicAuth()

		return ok && user == "admin" && pass == "secret"
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/redfish/v1":
		root := map[string]interface{}{
			"@odata.id": "/redfish/v1",
			"Systems":   map[string]string{"@odata.id": "/redfish/v1/Systems"},
		}
		if b.sessions {
			root["Links"] = map[string]interface{}{
				"Sessions": map[string]string{"@odata.id": "/redfish/v1/SessionService/Sessions"},
			}
		}

		write(http.StatusOK, root)
	case r.Method == http.MethodPost && r.URL.Path == "/redfish/v1/SessionService/Sessions":
		var credentials map[string]string

		_ = json.NewDecoder(r.Body).Decode(&credentials)
		if credentials["UserName"] != "admin" || credentials["Password"] != "secret" {
			write(http.StatusUnauthorized, map[string]string{"error": "bad credentials"})

			return
		}

		b.token = "T1"
		w.Header().Set("X-Auth-Token", b.token)
		w.Header().Set("Location", "/redfish/v1/SessionService/Sessions/1")
		write(http.StatusCreated, map[string]string{"@odata.id": "/redfish/v1/SessionService/Sessions/1"})
	case !authorized():
		w.WriteHeader(http.StatusUnauthorized)
	case r.Method == http.MethodDelete && r.URL.Path == "/redfish/v1/SessionService/Sessions/1":
		b.token = ""
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && r.URL.Path == "/redfish/v1/Systems":
		write(http.StatusOK, map[string]interface{}{
			"@odata.id": "/redfish/v1/Systems",
			"Members":   []map[string]string{{"@odata.id": "/redfish/v1/Systems/1"}},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/redfish/v1/Systems/1":
		write(http.StatusOK, map[string]interface{}{
			"@odata.id":  "/redfish/v1/Systems/1",
			"PowerState": b.power,
			"Actions": map[string]interface{}{
				"#ComputerSystem.Reset": map[string]string{"target": "/redfish/v1/Systems/1/Actions/ComputerSystem.Reset"},
			},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/redfish/v1/Systems/1/Actions/ComputerSystem.Reset":
		b.power = "Off"
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := rfclient.New(context.Background(), nil)
	require.ErrorIs(t, err, redfish.ErrConfigRequired)

	_, err = rfclient.New(context.Background(), &redfish.Config{})
	require.ErrorIs(t, err, redfish.ErrEndpointRequired)

	_, err = rfclient.New(context.Background(), &redfish.Config{
		Endpoint: "bmc.example.com",
		Cache:    &redfish.CacheConfig{Type: "redis"},
	})
	require.ErrorIs(t, err, redfish.ErrUnsupportedCacheType)
}

func TestNew_NormalizesEndpoint(t *testing.T) {
	t.Parallel()

	config := &redfish.Config{Endpoint: "bmc.example.com/"}

	root, err := rfclient.New(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, "https://bmc.example.com", config.Endpoint)
	assert.True(t, root.IsStub())
	assert.Equal(t, "/redfish/v1", root.Address())
}

func TestConnect_Session(t *testing.T) {
	t.Parallel()

	bmc, server := newFakeBMC(t, true)
	ctx := context.Background()

	root, err := rfclient.Connect(ctx, &redfish.Config{
		Endpoint: server.URL,
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)

	data := root.SessionAuthData()
	assert.Equal(t, redfish.AuthModeSession, data.Mode)
	assert.Equal(t, "T1", data.Token)
	assert.Equal(t, "/redfish/v1/SessionService/Sessions/1", data.SessionID)

	state, ok, err := root.Dig(ctx, "Systems", "Members")
	require.NoError(t, err)
	require.True(t, ok)

	system := state.Array()[0].Resource()

	power, err := system.Get(ctx, "PowerState")
	require.NoError(t, err)
	assert.Equal(t, "On", power.Scalar())

	_, err = system.ExecuteAction(ctx, "#ComputerSystem.Reset", map[string]string{"ResetType": "ForceOff"})
	require.NoError(t, err)

	require.NoError(t, system.WaitFor(ctx, []string{"PowerState"}, "Off", redfish.WithPollInterval(0)))

	require.NoError(t, root.Logout(ctx))
	assert.Equal(t, 1, bmc.Hits("DELETE /redfish/v1/SessionService/Sessions/1"))
	assert.Empty(t, root.SessionAuthData().SessionID)
}

func TestConnect_SessionRelogin(t *testing.T) {
	t.Parallel()

	bmc, server := newFakeBMC(t, true)
	ctx := context.Background()

	root, err := rfclient.Connect(ctx, &redfish.Config{
		Endpoint: server.URL,
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)

	bmc.ExpireSession()

	system, err := root.Find(ctx, "/redfish/v1/Systems/1")
	require.NoError(t, err)

	power, err := system.Get(ctx, "PowerState")
	require.NoError(t, err)
	assert.Equal(t, "On", power.Scalar())

	assert.Equal(t, 2, bmc.Hits("GET /redfish/v1/Systems/1"))
	assert.Equal(t, 2, bmc.Hits("POST /redfish/v1/SessionService/Sessions"))
}

func TestConnect_Basic(t *testing.T) {
	t.Parallel()

	bmc, server := newFakeBMC(t, false)
	ctx := context.Background()

	root, err := rfclient.Connect(ctx, &redfish.Config{
		Endpoint: server.URL,
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, redfish.AuthModeBasic, root.SessionAuthData().Mode)
	assert.Equal(t, 1, bmc.Hits("GET /redfish/v1/Systems"))

	_, err = rfclient.Connect(ctx, &redfish.Config{
		Endpoint: server.URL,
		Username: "admin",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.True(t, redfish.IsAuthError(err))
}

func TestConnect_BadCredentials(t *testing.T) {
	t.Parallel()

	_, server := newFakeBMC(t, true)

	_, err := rfclient.Connect(context.Background(), &redfish.Config{
		Endpoint: server.URL,
		Username: "admin",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.True(t, redfish.IsAuthError(err))
}

func TestConnect_Cache(t *testing.T) {
	t.Parallel()

	bmc, server := newFakeBMC(t, true)
	ctx := context.Background()
	eager := false

	root, err := rfclient.Connect(ctx, &redfish.Config{
		Endpoint: server.URL,
		Username: "admin",
		Password: "secret",
		LazyLoad: &eager,
		Cache:    redfish.DefaultCacheConfig(),
	})
	require.NoError(t, err)
	assert.False(t, root.IsStub())

	for range make([]struct{}, 3) {
		system, err := root.Find(ctx, "/redfish/v1/Systems/1")
		require.NoError(t, err)
		assert.False(t, system.IsStub())
	}

	assert.Equal(t, 1, bmc.Hits("GET /redfish/v1/Systems/1"))

	system, err := root.Find(ctx, "/redfish/v1/Systems/1")
	require.NoError(t, err)
	require.NoError(t, system.Refresh(ctx))
	assert.Equal(t, 2, bmc.Hits("GET /redfish/v1/Systems/1"))
}
