// Package catalog builds untyped apisvc services from a YAML resource catalog.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/stayops/apisvc"
)

// Record is the payload type of catalog resources.
type Record = map[string]any

// Result is an envelope of any payload type.
type Result interface {
	json.Marshaler
	OK() bool
	ErrorMessage() string
}

// Entry is a registered resource.
type Entry struct {
	Name    string
	Spec    ResourceSpec
	Service *apisvc.Service[Record, string]
}

// List fetches the collection, as a page when the resource is paged.
func (e *Entry) List(ctx context.Context, params apisvc.QueryParams) Result {
	if e.Spec.Paged {
		return e.Service.FetchAllPaged(ctx, params)
	}
	return e.Service.FetchAll(ctx, params)
}

// Catalog is a named set of resource services sharing one transport.
type Catalog struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	transport apisvc.Transport
	base      apisvc.Config
}

// Option configures a Catalog.
type Option func(*apisvc.Config)

// WithTenant sets how the active organization is resolved.
func WithTenant(fn apisvc.TenantFunc) Option {
	return func(c *apisvc.Config) {
		c.Tenant = fn
	}
}

// WithInterceptors appends interceptors to every service.
func WithInterceptors(interceptors ...apisvc.Interceptor) Option {
	return func(c *apisvc.Config) {
		c.Interceptors = append(c.Interceptors, interceptors...)
	}
}

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *apisvc.Config) {
		c.Logger = logger
	}
}

// New creates an empty catalog.
func New(t apisvc.Transport, opts ...Option) *Catalog {
	c := &Catalog{
		entries:   make(map[string]*Entry),
		transport: t,
	}
	for _, opt := range opts {
		opt(&c.base)
	}
	if c.base.Logger == nil {
		c.base.Logger = slog.Default()
	}
	return c
}

// FromFile creates a catalog holding every resource of f.
func FromFile(t apisvc.Transport, f *File, opts ...Option) (*Catalog, error) {
	c := New(t, opts...)
	names := make([]string, 0, len(f.Resources))
	for name := range f.Resources {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := c.Register(name, f.Resources[name]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register builds a service for spec under name.
// If name is already registered it is replaced and a warning is logged.
func (c *Catalog) Register(name string, spec ResourceSpec) error {
	if err := spec.validate(); err != nil {
		return err
	}
	if spec.IDField == "" {
		spec.IDField = "id"
	}

	cfg := c.base
	cfg.BasePath = spec.Path
	cfg.IncludeOrgID = spec.IncludeOrgID
	cfg.SkipValidation = true
	if spec.DeleteParam != "" {
		path, param := spec.Path, spec.DeleteParam
		cfg.Routes = map[apisvc.Operation]apisvc.RouteResolver{
			apisvc.OpDelete: func(id string) apisvc.Route {
				return apisvc.Route{Path: path, Query: apisvc.QueryParams{{Key: param, Value: id}}}
			},
		}
	}

	svc, err := apisvc.New(c.transport, cfg, recordID(spec.IDField))
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[name]; exists {
		c.base.Logger.Warn("duplicate resource registration",
			slog.String("resource", name),
			slog.String("path", spec.Path))
	}
	c.entries[name] = &Entry{Name: name, Spec: spec, Service: svc}
	return nil
}

// Lookup returns the entry registered under name.
func (c *Catalog) Lookup(name string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e, ok
}

// Names returns the registered resource names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Request sends an arbitrary request through the catalog's interceptors.
// The response body is returned undecoded.
func (c *Catalog) Request(ctx context.Context, method, path string, body any) Result {
	cfg := c.base
	cfg.BasePath = "/"
	svc, err := apisvc.New(c.transport, cfg, recordID("id"))
	if err != nil {
		return apisvc.Envelope[json.RawMessage]{
			Status: http.StatusBadRequest,
			Err:    apisvc.NewError(apisvc.KindClientValidation, err.Error()),
		}
	}
	return apisvc.CustomRequest[json.RawMessage](ctx, svc, method, path, body)
}

func recordID(field string) apisvc.IDFunc[Record, string] {
	return func(r Record) (string, bool) {
		switch v := r[field].(type) {
		case string:
			return v, v != ""
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case int:
			return strconv.Itoa(v), true
		case int64:
			return strconv.FormatInt(v, 10), true
		case json.Number:
			return v.String(), v != ""
		default:
			return "", false
		}
	}
}
