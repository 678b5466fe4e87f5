// Package redfish provides types and a lazily loaded resource graph for working with
// Redfish hardware-management services.
//
// # Overview
//
// A Redfish service exposes JSON documents linked by "@odata.id" fields. This package
// wraps those documents as Resource values: a resource built from an address is a stub
// until one of its fields is needed, at which point it is fetched through a Connector.
// Links inside a document become child resources with the same laziness as their
// parent, inline objects become inline resources, and arrays are wrapped element-wise.
//
// Root is the service root. Its Login picks session authentication when the root
// document links a sessions collection and Basic authentication otherwise. Most
// consumers should use the rfclient package to build a connected Root.
//
// Getting a root
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/redfish-client/pkg/redfish"
//	  "github.com/fivetwenty-io/redfish-client/pkg/rfclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  root, err := rfclient.Connect(ctx, &redfish.Config{
//	    Endpoint: "https://bmc.example.com",
//	    Username: "admin",
//	    Password: "secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer root.Logout(ctx)
//
//	  members, ok, err := root.Dig(ctx, "Systems", "Members")
//	  if err != nil || !ok { log.Fatal("no systems") }
//
//	  for _, member := range members.Array() {
//	    state, err := member.Resource().Get(ctx, "PowerState")
//	    if err != nil { log.Fatal(err) }
//	    log.Println(state.String())
//	  }
//	}
//
// # Navigation
//
// Get returns a Value, a tagged variant over scalars, inline objects, links and arrays.
// Dig follows a chain of keys and reports false instead of failing when one is missing
// or when it reaches an array or scalar before the last key.
// FindObject searches nested inline objects depth-first, which is how ExecuteAction
// locates action descriptors, including those under "Oem".
//
// # Waiting for state
//
// WaitFor refreshes a resource every poll interval until a nested field takes the
// expected value, fails on blacklisted values and gives up after a timeout:
//
//	err := system.WaitFor(ctx, []string{"PowerState"}, "Off",
//	  redfish.WithPollInterval(time.Second),
//	  redfish.WithTimeout(2*time.Minute),
//	  redfish.WithBlacklist("Unknown"))
//
// # Errors
//
// Failures are reported with sentinel errors (ErrKeyNotFound, ErrMissingAddress, ...)
// and typed errors carrying detail (InaccessibleError, AuthError,
// ResourceNotFoundError, BlacklistedValueError, TimedOutError). Use errors.Is with the
// sentinels, or the IsInaccessible, IsAuthError and IsNotFound helpers.
//
// # Caching
//
// The Cache abstraction has in-memory, NATS JetStream key-value and no-op backends.
// When a cache is configured, successful GET responses are reused until a resource
// refresh drops them.
package redfish
