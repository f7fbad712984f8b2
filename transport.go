package apisvc

import (
	"context"
	"net/http"
)

// Transport performs a single HTTP exchange.
//
// Implementations must return a *StatusError (with the response attached) when
// the server answered with a non-2xx status, and any other error when no
// response was obtained. Base URL, credentials and default headers are the
// transport's concern.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Request is a transport-level request. Path is relative to the transport's
// base URL. Body is JSON encoded by the transport; nil means no body.
type Request struct {
	Method string
	Path   string
	Query  QueryParams
	Body   any
	Header http.Header
}

// Response is a transport-level response with the raw body.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Success reports whether the status is 2xx.
func (r *Response) Success() bool {
	return r.Status >= 200 && r.Status < 300
}
