// Package connector implements the authenticated connection to a Redfish service and
// the caching decorator around it.
package connector

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/redfish-client/internal/constants"
	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
)

// Transport is the HTTP layer the connector drives. *http.Client satisfies it.
type Transport interface {
	Get(ctx context.Context, path string) (*redfish.Response, error)
	Post(ctx context.Context, path string, body interface{}) (*redfish.Response, error)
	Put(ctx context.Context, path string, body interface{}) (*redfish.Response, error)
	Patch(ctx context.Context, path string, body interface{}) (*redfish.Response, error)
	Delete(ctx context.Context, path string) (*redfish.Response, error)
	SetHeader(key, value string)
	RemoveHeader(key string)
}

// Connector owns the authentication state of one service connection. It is not safe for
// concurrent use: login mutates the headers of the shared transport.
type Connector struct {
	transport Transport
	username  string
	password  string
	logger    redfish.Logger

	mode        redfish.AuthMode
	basicPath   string
	sessionPath string
	sessionID   string
	token       string
}

// Option configures a Connector.
type Option func(*Connector)

// WithLogger sets the logger for authentication events.
func WithLogger(logger redfish.Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}

// New creates a connector with no authentication data configured.
func New(transport Transport, username, password string, opts ...Option) *Connector {
	connector := &Connector{
		transport: transport,
		username:  username,
		password:  password,
	}

	for _, opt := range opts {
		opt(connector)
	}

	return connector
}

// Get issues a GET request.
func (c *Connector) Get(ctx context.Context, path string) (*redfish.Response, error) {
	return c.withRelogin(ctx, func() (*redfish.Response, error) {
		return c.transport.Get(ctx, path)
	})
}

// Post issues a POST request with an optional JSON payload.
func (c *Connector) Post(ctx context.Context, path string, payload interface{}) (*redfish.Response, error) {
	return c.withRelogin(ctx, func() (*redfish.Response, error) {
		return c.transport.Post(ctx, path, payload)
	})
}

// Patch issues a PATCH request.
func (c *Connector) Patch(ctx context.Context, path string, payload interface{}) (*redfish.Response, error) {
	return c.withRelogin(ctx, func() (*redfish.Response, error) {
		return c.transport.Patch(ctx, path, payload)
	})
}

// Put issues a PUT request.
func (c *Connector) Put(ctx context.Context, path string, payload interface{}) (*redfish.Response, error) {
	return c.withRelogin(ctx, func() (*redfish.Response, error) {
		return c.transport.Put(ctx, path, payload)
	})
}

// Delete issues a DELETE request.
func (c *Connector) Delete(ctx context.Context, path string) (*redfish.Response, error) {
	return c.withRelogin(ctx, func() (*redfish.Response, error) {
		return c.transport.Delete(ctx, path)
	})
}

// Reset is a no-op: the plain connector caches nothing.
func (c *Connector) Reset(_ context.Context, _ string) error {
	return nil
}

// SetSessionAuthData switches to session authentication. Basic credentials are dropped;
// a non-empty token is installed immediately.
func (c *Connector) SetSessionAuthData(sessionPath, sessionID, token string) {
	c.unsetBasicAuth()

	c.mode = redfish.AuthModeSession
	c.sessionPath = sessionPath
	c.sessionID = sessionID
	c.token = token

	if token != "" {
		c.transport.SetHeader(constants.HeaderAuthToken, token)
	}
}

// SetBasicAuthData switches to Basic authentication, probing path on login. A live
// session is deleted first.
func (c *Connector) SetBasicAuthData(ctx context.Context, path string) error {
	err := c.unsetSessionAuth(ctx)
	if err != nil {
		return err
	}

	c.mode = redfish.AuthModeBasic
	c.basicPath = path

	return nil
}

// Login authenticates using the configured auth data.
func (c *Connector) Login(ctx context.Context) error {
	switch c.mode {
	case redfish.AuthModeSession:
		return c.sessionLogin(ctx)
	case redfish.AuthModeBasic:
		return c.basicLogin(ctx)
	default:
		return redfish.ErrAuthNotConfigured
	}
}

// Logout deletes the active session, if any, and removes every installed auth header.
// The status of the session delete is ignored: an expired session is already gone.
func (c *Connector) Logout(ctx context.Context) error {
	if c.sessionID != "" {
		_, err := c.transport.Delete(ctx, c.sessionID)
		if err != nil {
			return fmt.Errorf("deleting session %s: %w", c.sessionID, err)
		}

		c.logInfo("session deleted", map[string]interface{}{"session": c.sessionID})
		c.sessionID = ""
	}

	c.token = ""
	c.transport.RemoveHeader(constants.HeaderAuthToken)
	c.transport.RemoveHeader(constants.HeaderAuthorization)

	return nil
}

// SessionAuthData returns a snapshot of the authentication state.
func (c *Connector) SessionAuthData() redfish.SessionAuthData {
	return redfish.SessionAuthData{
		Mode:        c.mode,
		SessionPath: c.sessionPath,
		SessionID:   c.sessionID,
		Token:       c.token,
	}
}

// withRelogin sends a request and, on 401, logs in once and sends it again. The second
// response is returned whatever its status.
func (c *Connector) withRelogin(ctx context.Context, send func() (*redfish.Response, error)) (*redfish.Response, error) {
	resp, err := send()
	if err != nil {
		return nil, err
	}

	if resp.Status != constants.HTTPStatusUnauthorized || c.mode == redfish.AuthModeNone {
		return resp, nil
	}

	c.logDebug("received 401, logging in again", map[string]interface{}{"mode": c.mode.String()})

	err = c.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("re-authenticating after 401: %w", err)
	}

	return send()
}

func (c *Connector) sessionLogin(ctx context.Context) error {
	// A stale token would make the service reject the session request itself.
	c.transport.RemoveHeader(constants.HeaderAuthToken)

	resp, err := c.transport.Post(ctx, c.sessionPath, map[string]string{
		"UserName": c.username,
		"Password": c.password,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	if resp.Status != constants.HTTPStatusCreated {
		return &redfish.AuthError{Status: resp.Status, Body: resp.Raw}
	}

	c.token = resp.Header(constants.HeaderAuthToken)
	c.sessionID = sessionLocation(resp)
	c.transport.SetHeader(constants.HeaderAuthToken, c.token)

	c.logInfo("session created", map[string]interface{}{"session": c.sessionID})

	return nil
}

func (c *Connector) basicLogin(ctx context.Context) error {
	credentials := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))
	c.transport.SetHeader(constants.HeaderAuthorization, "Basic "+credentials)

	resp, err := c.transport.Get(ctx, c.basicPath)
	if err != nil {
		c.transport.RemoveHeader(constants.HeaderAuthorization)

		return fmt.Errorf("probing basic auth: %w", err)
	}

	if resp.Status != constants.HTTPStatusOK {
		c.transport.RemoveHeader(constants.HeaderAuthorization)

		return &redfish.AuthError{Status: resp.Status, Body: resp.Raw}
	}

	c.logInfo("basic auth verified", map[string]interface{}{"path": c.basicPath})

	return nil
}

func (c *Connector) unsetBasicAuth() {
	if c.mode != redfish.AuthModeBasic {
		return
	}

	c.transport.RemoveHeader(constants.HeaderAuthorization)
	c.basicPath = ""
	c.mode = redfish.AuthModeNone
}

func (c *Connector) unsetSessionAuth(ctx context.Context) error {
	if c.mode != redfish.AuthModeSession {
		return nil
	}

	err := c.Logout(ctx)
	if err != nil {
		return err
	}

	c.sessionPath = ""
	c.mode = redfish.AuthModeNone

	return nil
}

// sessionLocation returns the session address from the Location header, reduced to its
// path, or from the body's link field.
func sessionLocation(resp *redfish.Response) string {
	location := resp.Header(constants.HeaderLocation)
	if location != "" {
		parsed, err := url.Parse(location)
		if err == nil && parsed.IsAbs() {
			return parsed.Path
		}

		return location
	}

	body, ok := resp.JSON.(map[string]interface{})
	if !ok {
		return ""
	}

	id, _ := body[redfish.LinkField].(string)

	return id
}

func (c *Connector) logInfo(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Info(msg, fields)
	}
}

func (c *Connector) logDebug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}
