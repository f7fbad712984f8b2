// Package testutil provides a recording transport and response helpers for
// testing code built on apisvc services.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stayops/apisvc"
)

// Responder produces the outcome of one recorded call.
type Responder func(ctx context.Context, req *apisvc.Request) (*apisvc.Response, error)

// Call is a request observed by a Transport, with its query already encoded.
type Call struct {
	Method string
	Path   string
	Query  string
	Body   any
}

// URL returns the path plus the encoded query string.
func (c Call) URL() string {
	if c.Query == "" {
		return c.Path
	}
	return c.Path + "?" + c.Query
}

// BodyJSON returns the JSON encoding of the request body.
func (c Call) BodyJSON(t testing.TB) map[string]any {
	t.Helper()
	data, err := json.Marshal(c.Body)
	if err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("body is not a JSON object: %v (%s)", err, data)
	}
	return out
}

// Transport is a spy apisvc.Transport. It records every call and delegates
// the response to a Responder. It is safe for concurrent use.
type Transport struct {
	mu        sync.Mutex
	calls     []Call
	responder Responder
}

// NewTransport creates a spy that answers with responder.
// A nil responder answers 200 with an empty body.
func NewTransport(responder Responder) *Transport {
	if responder == nil {
		responder = func(context.Context, *apisvc.Request) (*apisvc.Response, error) {
			return &apisvc.Response{Status: http.StatusOK}, nil
		}
	}
	return &Transport{responder: responder}
}

// Do implements apisvc.Transport.
func (t *Transport) Do(ctx context.Context, req *apisvc.Request) (*apisvc.Response, error) {
	query, err := req.Query.Encode()
	if err != nil {
		return nil, fmt.Errorf("testutil: encode query: %w", err)
	}
	t.mu.Lock()
	t.calls = append(t.calls, Call{
		Method: req.Method,
		Path:   req.Path,
		Query:  query,
		Body:   req.Body,
	})
	t.mu.Unlock()
	return t.responder(ctx, req)
}

// Calls returns a copy of the recorded calls.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// LastCall returns the most recent call, failing the test if there is none.
func (t *Transport) LastCall(tb testing.TB) Call {
	tb.Helper()
	calls := t.Calls()
	if len(calls) == 0 {
		tb.Fatal("expected at least one transport call, got none")
	}
	return calls[len(calls)-1]
}

// JSON returns a Responder answering status with v encoded as JSON.
func JSON(status int, v any) Responder {
	return func(context.Context, *apisvc.Request) (*apisvc.Response, error) {
		return JSONResponse(status, v), nil
	}
}

// JSONResponse builds a response whose body is v encoded as JSON.
func JSONResponse(status int, v any) *apisvc.Response {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: encode response: %v", err))
	}
	return &apisvc.Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   data,
	}
}

// Fail returns a Responder answering like a transport whose server replied
// with a non-2xx status and the given JSON body.
func Fail(status int, body any) Responder {
	return func(context.Context, *apisvc.Request) (*apisvc.Response, error) {
		res := JSONResponse(status, body)
		return res, &apisvc.StatusError{
			Response: res,
			Message:  fmt.Sprintf("request failed with status code %d", status),
		}
	}
}

// Unreachable returns a Responder failing with err and no response.
func Unreachable(err error) Responder {
	return func(context.Context, *apisvc.Request) (*apisvc.Response, error) {
		return nil, err
	}
}

// AssertEnvelopeError checks that env failed with the expected kind and status.
func AssertEnvelopeError[T any](t testing.TB, env apisvc.Envelope[T], kind apisvc.Kind, status int) {
	t.Helper()
	if env.Err == nil {
		t.Fatalf("expected %s error, got success with status %d", kind, env.Status)
	}
	if env.Err.Kind != kind {
		t.Errorf("expected error kind %s, got %s (message: %s)", kind, env.Err.Kind, env.Err.Message)
	}
	if env.Status != status {
		t.Errorf("expected status %d, got %d", status, env.Status)
	}
	if env.Err.Message == "" {
		t.Error("expected non-empty error message")
	}
}
