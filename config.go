package apisvc

import (
	"log/slog"
	"maps"
	"slices"
)

// DefaultOrgIDKey is the query/body key carrying the tenant id.
const DefaultOrgIDKey = "organizationId"

// Config describes one REST resource. It is copied by New and never mutated
// afterwards.
type Config struct {
	// BasePath is the default URL path of the resource, e.g. "/departments".
	BasePath string

	// IncludeOrgID stamps the active tenant id on every request: in the query
	// string for GET/DELETE, in the JSON body for POST/PUT.
	IncludeOrgID bool

	// OrgIDKey overrides DefaultOrgIDKey.
	OrgIDKey string

	// Tenant resolves the active tenant at call time.
	// Defaults to TenantFromContext.
	Tenant TenantFunc

	// Routes overrides the default route of individual operations.
	Routes map[Operation]RouteResolver

	// Interceptors wrap every transport call, first one outermost.
	Interceptors []Interceptor

	// SkipValidation disables struct-tag validation of Create/Update payloads.
	SkipValidation bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// clone returns a deep enough copy so later changes by the caller cannot leak in.
func (c Config) clone() Config {
	c.Routes = maps.Clone(c.Routes)
	c.Interceptors = slices.Clone(c.Interceptors)
	if c.OrgIDKey == "" {
		c.OrgIDKey = DefaultOrgIDKey
	}
	if c.Tenant == nil {
		c.Tenant = TenantFromContext
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// route returns the override for op, if any.
func (c Config) route(op Operation, id string) (Route, bool) {
	resolver, ok := c.Routes[op]
	if !ok || resolver == nil {
		return Route{}, false
	}
	return resolver(id), true
}
