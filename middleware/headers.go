package middleware

import (
	"context"
	"net/http"

	"github.com/stayops/apisvc"
)

// StaticHeaders returns an interceptor that sets the given headers on every
// request unless the request already carries them.
func StaticHeaders(headers http.Header) apisvc.Interceptor {
	headers = headers.Clone()
	return func(ctx context.Context, req *apisvc.Request, next apisvc.Invoker) (*apisvc.Response, error) {
		if len(headers) > 0 {
			h := req.Header.Clone()
			if h == nil {
				h = make(http.Header, len(headers))
			}
			for k, vs := range headers {
				if h.Get(k) != "" {
					continue
				}
				h[k] = append([]string(nil), vs...)
			}
			r := *req
			r.Header = h
			req = &r
		}
		return next(ctx, req)
	}
}
