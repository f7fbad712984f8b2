package apisvc

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okInvoker(status int) Invoker {
	return func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{Status: status}, nil
	}
}

func TestChainInterceptors_Empty(t *testing.T) {
	chain := chainInterceptors(nil, okInvoker(http.StatusOK))
	res, err := chain(context.Background(), &Request{Method: "GET", Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestChainInterceptors_Multiple(t *testing.T) {
	var order []string

	record := func(name string) Interceptor {
		return func(ctx context.Context, req *Request, next Invoker) (*Response, error) {
			order = append(order, "before-"+name)
			res, err := next(ctx, req)
			order = append(order, "after-"+name)
			return res, err
		}
	}

	final := func(ctx context.Context, req *Request) (*Response, error) {
		order = append(order, "transport")
		return &Response{Status: http.StatusOK}, nil
	}

	chain := chainInterceptors([]Interceptor{record("1"), record("2"), record("3")}, final)
	_, err := chain(context.Background(), &Request{Method: "GET", Path: "/"})
	require.NoError(t, err)

	assert.Equal(t, []string{"before-1", "before-2", "before-3", "transport", "after-3", "after-2", "after-1"}, order)
}

func TestChainInterceptors_ShortCircuit(t *testing.T) {
	transportCalled := false
	final := func(ctx context.Context, req *Request) (*Response, error) {
		transportCalled = true
		return &Response{Status: http.StatusOK}, nil
	}
	deny := func(ctx context.Context, req *Request, next Invoker) (*Response, error) {
		return nil, NewError(KindClientValidation, "blocked")
	}

	chain := chainInterceptors([]Interceptor{deny}, final)
	_, err := chain(context.Background(), &Request{Method: "DELETE", Path: "/roles/1"})

	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, KindClientValidation, svcErr.Kind)
	assert.False(t, transportCalled, "transport must not be called")
}

func TestChainInterceptors_ModifyRequest(t *testing.T) {
	var seen http.Header
	final := func(ctx context.Context, req *Request) (*Response, error) {
		seen = req.Header
		return &Response{Status: http.StatusNoContent}, nil
	}
	stamp := func(ctx context.Context, req *Request, next Invoker) (*Response, error) {
		if req.Header == nil {
			req.Header = make(http.Header)
		}
		req.Header.Set("Accept-Language", "de")
		return next(ctx, req)
	}

	chain := chainInterceptors([]Interceptor{stamp}, final)
	_, err := chain(context.Background(), &Request{Method: "GET", Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, "de", seen.Get("Accept-Language"))
}
