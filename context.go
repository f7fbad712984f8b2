package apisvc

import (
	"context"
)

type contextKey struct {
	name string
}

var tenantKey = &contextKey{"tenant"}

// TenantFunc resolves the active tenant (organization) id for a call.
// It is invoked on every request, never cached.
type TenantFunc func(ctx context.Context) (int64, bool)

// WithTenant returns a context carrying the active organization id.
func WithTenant(ctx context.Context, orgID int64) context.Context {
	return context.WithValue(ctx, tenantKey, orgID)
}

// TenantFromContext returns the organization id stored by WithTenant.
func TenantFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(tenantKey).(int64)
	return id, ok
}

// StaticTenant returns a TenantFunc that always yields id.
func StaticTenant(id int64) TenantFunc {
	return func(context.Context) (int64, bool) {
		return id, true
	}
}
