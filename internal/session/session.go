// Package session derives the active organization from a bearer token.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stayops/apisvc"
)

// DefaultClaim is the token claim holding the organization id.
const DefaultClaim = "organizationId"

// ErrNoTenant is returned when the token carries no organization claim.
var ErrNoTenant = errors.New("token has no organization claim")

// TenantFromToken reads the organization id from claim of a JWT.
//
// The signature is not verified: the token is only inspected to pick the
// tenant, the backend still authenticates it.
func TenantFromToken(token, claim string) (int64, error) {
	if claim == "" {
		claim = DefaultClaim
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}
	v, ok := claims[claim]
	if !ok {
		return 0, ErrNoTenant
	}
	switch id := v.(type) {
	case float64:
		if id != math.Trunc(id) {
			return 0, fmt.Errorf("claim %q: %v is not an integer", claim, id)
		}
		return int64(id), nil
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("claim %q: %w", claim, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("claim %q: unsupported type %T", claim, v)
	}
}

// Tenant returns an apisvc.TenantFunc resolving, in order: a tenant stored in
// the context, the explicit org id, the token claim.
func Tenant(org int64, token, claim string) apisvc.TenantFunc {
	var fromToken int64
	var tokenOK bool
	if org == 0 && token != "" {
		id, err := TenantFromToken(token, claim)
		fromToken, tokenOK = id, err == nil
	}
	return func(ctx context.Context) (int64, bool) {
		if id, ok := apisvc.TenantFromContext(ctx); ok {
			return id, true
		}
		if org != 0 {
			return org, true
		}
		return fromToken, tokenOK
	}
}
