package apisvc

import (
	"fmt"
	"net/url"
	"strings"
)

// Operation names a CRUD operation whose route can be overridden.
type Operation int

const (
	// OpFetch covers both list and single fetches. List fetches call the
	// resolver with an empty id.
	OpFetch Operation = iota
	OpCreate
	OpUpdate
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpFetch:
		return "fetch"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// Route is an explicit URL path plus query parameters.
type Route struct {
	Path  string
	Query QueryParams
}

// RouteResolver computes a non-default route for an operation.
// id is the path-segment form of the identifier, or "" when the call has none.
type RouteResolver func(id string) Route

// Identifier is the set of types usable as resource ids.
type Identifier interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~string
}

// FormatID returns the path-segment form of id.
func FormatID[ID Identifier](id ID) string {
	return fmt.Sprint(id)
}

// joinPath appends an escaped id segment to base.
func joinPath(base, id string) string {
	if id == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(id)
}
