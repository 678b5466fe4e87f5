// Package rfclient provides the main entry point for connecting to a Redfish service
package rfclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/redfish-client/internal/connector"
	"github.com/fivetwenty-io/redfish-client/internal/constants"
	rfhttp "github.com/fivetwenty-io/redfish-client/internal/http"
	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
)

// Connect builds a root for config and logs in.
func Connect(ctx context.Context, config *redfish.Config) (*redfish.Root, error) {
	root, err := New(ctx, config)
	if err != nil {
		return nil, err
	}

	err = root.Login(ctx)
	if err != nil {
		return nil, err
	}

	return root, nil
}

// New builds a root for config without logging in. The root document is fetched
// immediately only when LazyLoad is false.
func New(ctx context.Context, config *redfish.Config) (*redfish.Root, error) {
	if config == nil {
		return nil, redfish.ErrConfigRequired
	}

	if config.Endpoint == "" {
		return nil, redfish.ErrEndpointRequired
	}

	endpoint := normalizeEndpoint(config.Endpoint)
	config.Endpoint = endpoint

	transport := rfhttp.NewClient(endpoint, transportOptions(config)...)

	var conn redfish.AuthConnector = connector.New(transport, config.Username, config.Password,
		connector.WithLogger(config.Logger))

	if config.Cache != nil && config.Cache.Type != redfish.CacheTypeNone {
		cache, err := redfish.NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("creating response cache: %w", err)
		}

		conn = connector.NewCaching(conn, cache,
			connector.WithCacheOptions(config.Cache.Options),
			connector.WithCacheLogger(config.Logger))
	}

	lazy := true
	if config.LazyLoad != nil {
		lazy = *config.LazyLoad
	}

	root, err := redfish.NewRoot(ctx, conn, config.RootPath, redfish.WithLazy(lazy))
	if err != nil {
		return nil, fmt.Errorf("failed to create root: %w", err)
	}

	return root, nil
}

// normalizeEndpoint trims a trailing slash and defaults the scheme to https.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

func transportOptions(config *redfish.Config) []rfhttp.Option {
	opts := []rfhttp.Option{
		rfhttp.WithInsecureSkipVerify(config.InsecureSkipVerify),
		rfhttp.WithDebug(config.Debug),
	}

	if config.Logger != nil {
		opts = append(opts, rfhttp.WithLogger(config.Logger))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, rfhttp.WithTimeout(config.HTTPTimeout))
	}

	if config.UserAgent != "" {
		opts = append(opts, rfhttp.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax > 0 {
		waitMin := config.RetryWaitMin
		if waitMin == 0 {
			waitMin = constants.DefaultRetryWaitMin
		}

		waitMax := config.RetryWaitMax
		if waitMax == 0 {
			waitMax = constants.DefaultRetryWaitMax
		}

		opts = append(opts, rfhttp.WithRetryConfig(config.RetryMax, waitMin, waitMax))
	}

	if config.RateLimit > 0 {
		opts = append(opts, rfhttp.WithRateLimit(config.RateLimit))
	}

	return opts
}
