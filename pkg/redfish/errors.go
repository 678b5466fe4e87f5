package redfish

import (
	"errors"
	"fmt"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrInaccessible       = errors.New("service inaccessible")
	ErrAuth               = errors.New("authentication failed")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrMissingAddress     = errors.New("resource has no address")
	ErrKeyNotFound        = errors.New("key not found")
	ErrActionsUnsupported = errors.New("resource does not support actions")
	ErrActionNotFound     = errors.New("action not found")
	ErrBlacklistedValue   = errors.New("blacklisted value")
	ErrTimedOut           = errors.New("timed out")
	ErrAuthNotConfigured  = errors.New("no session or basic auth data configured")
	ErrNoAuthEndpoint     = errors.New("root document has no sessions link or linked resource")
	ErrConfigRequired     = errors.New("config is required")
	ErrEndpointRequired   = errors.New("endpoint is required")
)

// Cache errors.
var (
	ErrCacheKeyNotFound      = errors.New("key not found")
	ErrCacheEntryExpired     = errors.New("entry expired")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrInvalidCacheEntryData = errors.New("invalid cache entry data")
)

// InaccessibleError reports a transport-level failure: the service could not be reached
// or the connection could not be established.
type InaccessibleError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *InaccessibleError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInaccessible, e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *InaccessibleError) Unwrap() error {
	return e.Err
}

// Is matches ErrInaccessible.
func (e *InaccessibleError) Is(target error) bool {
	return target == ErrInaccessible
}

// AuthError reports a login rejected by the service.
type AuthError struct {
	Status int
	Body   []byte
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s (status: %d)", ErrAuth, e.Status)
	}

	return fmt.Sprintf("%s (status: %d): %s", ErrAuth, e.Status, e.Body)
}

// Is matches ErrAuth.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// ResourceNotFoundError reports a non-200 response while resolving a resource.
type ResourceNotFoundError struct {
	Address string
	Status  int
	Body    []byte
}

// Error implements the error interface.
func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s (status: %d)", ErrResourceNotFound, e.Address, e.Status)
}

// Is matches ErrResourceNotFound.
func (e *ResourceNotFoundError) Is(target error) bool {
	return target == ErrResourceNotFound
}

// BlacklistedValueError is returned by WaitFor when the polled field takes one of the
// blacklisted values.
type BlacklistedValueError struct {
	Path  []string
	Value interface{}
}

// Error implements the error interface.
func (e *BlacklistedValueError) Error() string {
	return fmt.Sprintf("%s %v at %v", ErrBlacklistedValue, e.Value, e.Path)
}

// Is matches ErrBlacklistedValue.
func (e *BlacklistedValueError) Is(target error) bool {
	return target == ErrBlacklistedValue
}

// TimedOutError is returned by WaitFor when the expected value was not observed in time.
type TimedOutError struct {
	Path    []string
	Timeout time.Duration
	Last    interface{}
}

// Error implements the error interface.
func (e *TimedOutError) Error() string {
	return fmt.Sprintf("%s after %s waiting on %v (last value: %v)", ErrTimedOut, e.Timeout, e.Path, e.Last)
}

// Is matches ErrTimedOut.
func (e *TimedOutError) Is(target error) bool {
	return target == ErrTimedOut
}

// IsInaccessible checks if the error is a transport-level failure.
func IsInaccessible(err error) bool {
	return errors.Is(err, ErrInaccessible)
}

// IsAuthError checks if the error is a rejected login.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsNotFound checks if the error is a missing resource or key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound) || errors.Is(err, ErrKeyNotFound)
}
