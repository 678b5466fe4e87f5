package redfish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/redfish-client/internal/constants"
	"github.com/jmespath/go-jmespath"
)

// Resource is a lazily loaded node of the service's JSON graph.
//
// A resource built from an address starts as a stub holding only that address when
// lazy, and is fetched on the first access that needs more. Resources are not safe for
// concurrent use.
type Resource struct {
	connector Connector
	lazy      bool
	memoize   bool

	stub     bool
	headers  map[string]string
	content  interface{}
	keyOrder []string
	children map[string]Value
}

type resourceOptions struct {
	lazy    bool
	memoize bool
}

// ResourceOption configures a Resource.
type ResourceOption func(*resourceOptions)

// WithLazy sets whether the resource defers fetching until its content is needed.
// Resources are lazy by default.
func WithLazy(lazy bool) ResourceOption {
	return func(o *resourceOptions) {
		o.lazy = lazy
	}
}

// WithMemoization makes the resource reuse built children across accesses until it is
// refreshed. Disabled by default: each access builds a fresh value.
func WithMemoization(memoize bool) ResourceOption {
	return func(o *resourceOptions) {
		o.memoize = memoize
	}
}

func newResourceOptions(opts []ResourceOption) resourceOptions {
	options := resourceOptions{lazy: true}
	for _, opt := range opts {
		opt(&options)
	}

	return options
}

// NewResource creates a resource for the address oid. A lazy resource is a stub and
// performs no request; an eager one is fetched immediately.
//
// The address may carry a fragment (e.g. "/redfish/v1/Chassis/1/Thermal#/Fans/0"), in
// which case the document at the base address is fetched and the fragment path is
// followed through object keys and array indices.
func NewResource(ctx context.Context, connector Connector, oid string, opts ...ResourceOption) (*Resource, error) {
	options := newResourceOptions(opts)

	resource := &Resource{
		connector: connector,
		lazy:      options.lazy,
		memoize:   options.memoize,
		stub:      true,
		content:   map[string]interface{}{LinkField: oid},
	}

	if !resource.lazy {
		err := resource.load(ctx)
		if err != nil {
			return nil, err
		}
	}

	return resource, nil
}

// NewResourceFromData wraps already loaded content.
func NewResourceFromData(connector Connector, data interface{}, opts ...ResourceOption) *Resource {
	options := newResourceOptions(opts)

	return &Resource{
		connector: connector,
		lazy:      options.lazy,
		memoize:   options.memoize,
		content:   data,
	}
}

// Address returns the resource's own address, or "" when its content carries none.
func (r *Resource) Address() string {
	object, ok := r.content.(map[string]interface{})
	if !ok {
		return ""
	}

	address, _ := object[LinkField].(string)

	return address
}

// IsStub reports whether only the address has been loaded.
func (r *Resource) IsStub() bool {
	return r.stub
}

// IsLazy reports whether the resource defers fetching.
func (r *Resource) IsLazy() bool {
	return r.lazy
}

// Headers returns the response headers of the last fetch.
func (r *Resource) Headers() map[string]string {
	return r.headers
}

// Content returns the currently loaded content without resolving a stub.
func (r *Resource) Content() interface{} {
	return r.content
}

// Raw resolves a stub and returns the full content.
func (r *Resource) Raw(ctx context.Context) (interface{}, error) {
	err := r.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	return r.content, nil
}

// Get returns the built value at key. A stub is resolved when the key is not among the
// fields already loaded.
func (r *Resource) Get(ctx context.Context, key string) (Value, error) {
	if r.memoize {
		if value, ok := r.children[key]; ok {
			return value, nil
		}
	}

	raw, ok, err := r.lookup(ctx, key)
	if err != nil {
		return Value{}, err
	}

	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	value, err := r.build(ctx, raw)
	if err != nil {
		return Value{}, err
	}

	if r.memoize {
		if r.children == nil {
			r.children = make(map[string]Value)
		}

		r.children[key] = value
	}

	return value, nil
}

// Contains reports whether key exists, resolving a stub first when needed.
func (r *Resource) Contains(ctx context.Context, key string) (bool, error) {
	_, ok, err := r.lookup(ctx, key)

	return ok, err
}

// Dig follows keys through nested resources. It reports false as soon as a key is
// absent or an intermediate value is not an object.
func (r *Resource) Dig(ctx context.Context, keys ...string) (Value, bool, error) {
	value := resourceValue(r)

	for _, key := range keys {
		current := value.Resource()
		if current == nil {
			return Value{}, false, nil
		}

		ok, err := current.Contains(ctx, key)
		if err != nil {
			return Value{}, false, err
		}

		if !ok {
			return Value{}, false, nil
		}

		value, err = current.Get(ctx, key)
		if err != nil {
			return Value{}, false, err
		}
	}

	return value, true, nil
}

// FindObject searches the loaded content depth-first for key: own fields first, then
// nested inline objects. Links are not followed.
func (r *Resource) FindObject(ctx context.Context, key string) (Value, bool, error) {
	err := r.ensureLoaded(ctx)
	if err != nil {
		return Value{}, false, err
	}

	object, ok := r.content.(map[string]interface{})
	if !ok {
		return Value{}, false, nil
	}

	raw, ok := findObject(object, key, r.keyOrder)
	if !ok {
		return Value{}, false, nil
	}

	value, err := r.build(ctx, raw)
	if err != nil {
		return Value{}, false, err
	}

	return value, true, nil
}

// ExecuteAction posts payload to the target of the named action.
func (r *Resource) ExecuteAction(ctx context.Context, name string, payload interface{}) (*Response, error) {
	raw, ok, err := r.lookup(ctx, "Actions")
	if err != nil {
		return nil, err
	}

	actions, isObject := raw.(map[string]interface{})
	if !ok || !isObject {
		return nil, fmt.Errorf("%w: %s", ErrActionsUnsupported, r.Address())
	}

	found, ok := findObject(actions, name, nil)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActionNotFound, name)
	}

	descriptor, _ := found.(map[string]interface{})

	target, _ := descriptor["target"].(string)
	if target == "" {
		return nil, fmt.Errorf("%w: %s has no target", ErrActionNotFound, name)
	}

	return r.connector.Post(ctx, target, payload)
}

// Post sends payload to the resource's address, typically to create a member.
func (r *Resource) Post(ctx context.Context, payload interface{}) (*Response, error) {
	path, err := r.mutationPath()
	if err != nil {
		return nil, err
	}

	return r.connector.Post(ctx, path, payload)
}

// Patch updates the resource.
func (r *Resource) Patch(ctx context.Context, payload interface{}) (*Response, error) {
	path, err := r.mutationPath()
	if err != nil {
		return nil, err
	}

	return r.connector.Patch(ctx, path, payload)
}

// Put replaces the resource, or the resource at path when path is not empty.
func (r *Resource) Put(ctx context.Context, path string, payload interface{}) (*Response, error) {
	own, err := r.mutationPath()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = own
	}

	return r.connector.Put(ctx, path, payload)
}

// Delete deletes the resource.
func (r *Resource) Delete(ctx context.Context) (*Response, error) {
	path, err := r.mutationPath()
	if err != nil {
		return nil, err
	}

	return r.connector.Delete(ctx, path)
}

// Refresh drops the cached document and reloads the resource: a lazy resource reverts
// to a stub, an eager one is fetched again.
func (r *Resource) Refresh(ctx context.Context) error {
	address := r.Address()
	if address == "" {
		return ErrMissingAddress
	}

	base, _ := splitAddress(address)

	err := r.connector.Reset(ctx, base)
	if err != nil {
		return fmt.Errorf("resetting %s: %w", base, err)
	}

	r.children = nil

	if r.lazy {
		r.stub = true
		r.content = map[string]interface{}{LinkField: address}
		r.keyOrder = nil

		return nil
	}

	return r.load(ctx)
}

// WaitOption configures WaitFor.
type WaitOption func(*waitConfig)

type waitConfig struct {
	interval  time.Duration
	timeout   time.Duration
	blacklist []interface{}
}

// WithPollInterval sets the delay between polls.
func WithPollInterval(interval time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.interval = interval
	}
}

// WithTimeout sets how long WaitFor polls before giving up.
func WithTimeout(timeout time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.timeout = timeout
	}
}

// WithBlacklist makes WaitFor fail as soon as the polled field takes one of values.
func WithBlacklist(values ...interface{}) WaitOption {
	return func(c *waitConfig) {
		c.blacklist = append(c.blacklist, values...)
	}
}

// WaitFor polls the field at path until it equals expected. Every poll refreshes the
// resource first, so the current content is never compared without a fresh fetch.
// Values are compared in their JSON form: WaitFor(ctx, path, 2) matches a JSON 2.
func (r *Resource) WaitFor(ctx context.Context, path []string, expected interface{}, opts ...WaitOption) error {
	config := waitConfig{
		interval: constants.DefaultPollInterval,
		timeout:  constants.DefaultWaitTimeout,
	}
	for _, opt := range opts {
		opt(&config)
	}

	if r.Address() == "" {
		return ErrMissingAddress
	}

	want := normalizeJSON(expected)

	blacklist := make([]interface{}, len(config.blacklist))
	for i, value := range config.blacklist {
		blacklist[i] = normalizeJSON(value)
	}

	var last interface{}

	start := time.Now()

	for {
		err := r.Refresh(ctx)
		if err != nil {
			return err
		}

		err = r.ensureLoaded(ctx)
		if err != nil {
			return err
		}

		value, found := descend(r.content, path)
		if found {
			last = value

			if reflect.DeepEqual(value, want) {
				return nil
			}

			for _, banned := range blacklist {
				if reflect.DeepEqual(value, banned) {
					return &BlacklistedValueError{Path: path, Value: value}
				}
			}
		}

		timer := time.NewTimer(config.interval)
		select {
		case <-ctx.Done():
			timer.Stop()

			return fmt.Errorf("waiting on %v: %w", path, ctx.Err())
		case <-timer.C:
		}

		if time.Since(start) > config.timeout {
			return &TimedOutError{Path: path, Timeout: config.timeout, Last: last}
		}
	}
}

// Query evaluates a JMESPath expression against the resolved content.
func (r *Resource) Query(ctx context.Context, expression string) (interface{}, error) {
	data, err := r.Raw(ctx)
	if err != nil {
		return nil, err
	}

	result, err := jmespath.Search(expression, data)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", expression, err)
	}

	return result, nil
}

func (r *Resource) options() []ResourceOption {
	return []ResourceOption{WithLazy(r.lazy), WithMemoization(r.memoize)}
}

// lookup returns the raw field at key, resolving a stub if the key is not loaded yet.
func (r *Resource) lookup(ctx context.Context, key string) (interface{}, bool, error) {
	raw, ok := field(r.content, key)
	if ok || !r.stub {
		return raw, ok, nil
	}

	err := r.load(ctx)
	if err != nil {
		return nil, false, err
	}

	raw, ok = field(r.content, key)

	return raw, ok, nil
}

func (r *Resource) ensureLoaded(ctx context.Context) error {
	if !r.stub {
		return nil
	}

	return r.load(ctx)
}

func (r *Resource) load(ctx context.Context) error {
	address := r.Address()
	if address == "" {
		return ErrMissingAddress
	}

	base, fragment := splitAddress(address)

	resp, err := r.connector.Get(ctx, base)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", base, err)
	}

	if resp.Status != constants.HTTPStatusOK {
		return &ResourceNotFoundError{Address: address, Status: resp.Status, Body: resp.Raw}
	}

	parts := fragmentParts(fragment)

	content, ok := descend(resp.JSON, parts)
	if !ok {
		return fmt.Errorf("%w: fragment %q of %s", ErrKeyNotFound, fragment, base)
	}

	r.headers = resp.Headers
	r.content = content
	r.stub = false
	r.children = nil
	r.keyOrder = nil

	if len(parts) == 0 {
		r.keyOrder = topLevelKeys(resp.Raw)
	}

	return nil
}

func (r *Resource) build(ctx context.Context, raw interface{}) (Value, error) {
	switch data := raw.(type) {
	case map[string]interface{}:
		if address, ok := data[LinkField].(string); ok {
			child, err := NewResource(ctx, r.connector, address, r.options()...)
			if err != nil {
				return Value{}, err
			}

			return Value{kind: KindLink, resource: child}, nil
		}

		return Value{kind: KindObject, resource: NewResourceFromData(r.connector, data, r.options()...)}, nil
	case []interface{}:
		items := make([]Value, len(data))

		for i, item := range data {
			value, err := r.build(ctx, item)
			if err != nil {
				return Value{}, err
			}

			items[i] = value
		}

		return Value{kind: KindArray, array: items}, nil
	default:
		return scalarValue(raw), nil
	}
}

func (r *Resource) mutationPath() (string, error) {
	address := r.Address()
	if address == "" {
		return "", ErrMissingAddress
	}

	base, _ := splitAddress(address)

	return base, nil
}

// splitAddress separates "/a/b#/x/0" into "/a/b" and "/x/0".
func splitAddress(address string) (string, string) {
	base, fragment, _ := strings.Cut(address, "#")

	return base, fragment
}

func fragmentParts(fragment string) []string {
	fragment = strings.Trim(fragment, "/")
	if fragment == "" {
		return nil
	}

	return strings.Split(fragment, "/")
}

// field indexes an object by key or an array by decimal index.
func field(data interface{}, key string) (interface{}, bool) {
	switch container := data.(type) {
	case map[string]interface{}:
		value, ok := container[key]

		return value, ok
	case []interface{}:
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= len(container) {
			return nil, false
		}

		return container[index], true
	default:
		return nil, false
	}
}

func descend(data interface{}, path []string) (interface{}, bool) {
	for _, key := range path {
		var ok bool

		data, ok = field(data, key)
		if !ok {
			return nil, false
		}
	}

	return data, true
}

// findObject looks for key in object, then depth-first in nested objects. order gives
// the preferred key order of object; remaining keys are visited sorted.
func findObject(object map[string]interface{}, key string, order []string) (interface{}, bool) {
	if value, ok := object[key]; ok {
		return value, true
	}

	for _, name := range orderedKeys(object, order) {
		nested, ok := object[name].(map[string]interface{})
		if !ok {
			continue
		}

		if value, found := findObject(nested, key, nil); found {
			return value, true
		}
	}

	return nil, false
}

func orderedKeys(object map[string]interface{}, order []string) []string {
	keys := make([]string, 0, len(object))
	seen := make(map[string]bool, len(order))

	for _, key := range order {
		if _, ok := object[key]; ok && !seen[key] {
			keys = append(keys, key)
			seen[key] = true
		}
	}

	rest := make([]string, 0, len(object)-len(keys))
	for key := range object {
		if !seen[key] {
			rest = append(rest, key)
		}
	}

	sort.Strings(rest)

	return append(keys, rest...)
}

// topLevelKeys returns the keys of a JSON object document in the order they appear.
func topLevelKeys(raw []byte) []string {
	decoder := json.NewDecoder(bytes.NewReader(raw))

	token, err := decoder.Token()
	if err != nil {
		return nil
	}

	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var keys []string

	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return keys
		}

		key, ok := token.(string)
		if !ok {
			return keys
		}

		keys = append(keys, key)

		var skip json.RawMessage

		err = decoder.Decode(&skip)
		if err != nil {
			return keys
		}
	}

	return keys
}

// normalizeJSON converts v to the form encoding/json decodes it into, so that Go values
// compare equal to decoded content.
func normalizeJSON(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}

	var normalized interface{}

	err = json.Unmarshal(data, &normalized)
	if err != nil {
		return v
	}

	return normalized
}
