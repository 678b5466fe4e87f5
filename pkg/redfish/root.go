package redfish

import (
	"context"
	"fmt"
)

// Root is the service root resource. Its login inspects the root document to pick the
// authentication scheme the service supports.
type Root struct {
	*Resource

	auth AuthConnector
}

// NewRoot creates the root resource at oid, or at DefaultRootPath when oid is empty.
func NewRoot(ctx context.Context, connector AuthConnector, oid string, opts ...ResourceOption) (*Root, error) {
	if oid == "" {
		oid = DefaultRootPath
	}

	resource, err := NewResource(ctx, connector, oid, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading service root: %w", err)
	}

	return &Root{Resource: resource, auth: connector}, nil
}

// Login configures session authentication when the root links a sessions collection,
// otherwise Basic authentication probed against the first linked top-level resource,
// and then logs in.
func (r *Root) Login(ctx context.Context) error {
	err := r.ensureLoaded(ctx)
	if err != nil {
		return fmt.Errorf("loading service root: %w", err)
	}

	if sessions, ok := r.sessionsPath(); ok {
		r.auth.SetSessionAuthData(sessions, "", "")
	} else {
		probe, found := r.basicProbePath()
		if !found {
			return ErrNoAuthEndpoint
		}

		err = r.auth.SetBasicAuthData(ctx, probe)
		if err != nil {
			return err
		}
	}

	err = r.auth.Login(ctx)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	return nil
}

// Logout ends the current session, if any, and drops the auth headers.
func (r *Root) Logout(ctx context.Context) error {
	return r.auth.Logout(ctx)
}

// Find returns a new resource at oid sharing the root's connector and load settings.
func (r *Root) Find(ctx context.Context, oid string) (*Resource, error) {
	return NewResource(ctx, r.connector, oid, r.options()...)
}

// SessionAuthData returns the connector's authentication state.
func (r *Root) SessionAuthData() SessionAuthData {
	return r.auth.SessionAuthData()
}

// Connector returns the connector shared by every resource of this root.
func (r *Root) Connector() AuthConnector {
	return r.auth
}

func (r *Root) sessionsPath() (string, bool) {
	object, ok := r.content.(map[string]interface{})
	if !ok {
		return "", false
	}

	sessions, ok := descend(object, []string{"Links", "Sessions", LinkField})
	if !ok {
		return "", false
	}

	path, ok := sessions.(string)

	return path, ok && path != ""
}

// basicProbePath returns the address of the first top-level field, in document order,
// that links to another resource.
func (r *Root) basicProbePath() (string, bool) {
	object, ok := r.content.(map[string]interface{})
	if !ok {
		return "", false
	}

	for _, key := range orderedKeys(object, r.keyOrder) {
		nested, ok := object[key].(map[string]interface{})
		if !ok {
			continue
		}

		if address, ok := nested[LinkField].(string); ok && address != "" {
			return address, true
		}
	}

	return "", false
}
