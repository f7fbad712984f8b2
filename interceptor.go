package apisvc

import (
	"context"
)

// Invoker represents the next step in an interceptor chain.
// It is passed to [Interceptor] functions to invoke the next interceptor
// or the transport itself.
type Invoker func(ctx context.Context, req *Request) (*Response, error)

// Interceptor is a hook that wraps every transport call made by a Service.
//
//	func timing(ctx context.Context, req *apisvc.Request, next apisvc.Invoker) (*apisvc.Response, error) {
//	    start := time.Now()
//	    res, err := next(ctx, req)
//	    log.Printf("%s %s took %v", req.Method, req.Path, time.Since(start))
//	    return res, err
//	}
//
// Interceptors can:
//   - Inspect/modify the request before calling next
//   - Inspect/modify the response after calling next
//   - Short-circuit by returning an error without calling next
//
// Errors returned by interceptors go through the same normalization as
// transport errors.
type Interceptor func(ctx context.Context, req *Request, next Invoker) (*Response, error)

// chainInterceptors combines interceptors around final.
// The first interceptor in the slice is the outer-most one (runs first).
func chainInterceptors(interceptors []Interceptor, final Invoker) Invoker {
	chain := final
	for i := len(interceptors) - 1; i >= 0; i-- {
		current := interceptors[i]
		next := chain
		chain = func(ctx context.Context, req *Request) (*Response, error) {
			return current(ctx, req, next)
		}
	}
	return chain
}
