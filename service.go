package apisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IDFunc extracts the identifier from a payload and reports whether it is set.
type IDFunc[T any, ID Identifier] func(T) (ID, bool)

// API is the uniform client of one REST resource.
type API[T any, ID Identifier] interface {
	FetchAll(ctx context.Context, params QueryParams) Envelope[[]T]
	FetchAllPaged(ctx context.Context, params QueryParams) Envelope[Page[T]]
	Fetch(ctx context.Context, id ID) Envelope[T]
	FetchCurrent(ctx context.Context) Envelope[T]
	Create(ctx context.Context, payload T) Envelope[T]
	Update(ctx context.Context, payload T) Envelope[T]
	Delete(ctx context.Context, id ID) Envelope[Empty]
}

var _ API[struct{}, int64] = (*Service[struct{}, int64])(nil)

// Service implements API for resources of type T identified by ID.
// It holds no mutable state and is safe for concurrent use.
type Service[T any, ID Identifier] struct {
	cfg    Config
	idOf   IDFunc[T, ID]
	invoke Invoker
}

// New creates a service for the resource described by cfg.
// The transport and a non-empty BasePath are required; idOf is used by Update.
func New[T any, ID Identifier](t Transport, cfg Config, idOf IDFunc[T, ID]) (*Service[T, ID], error) {
	if t == nil {
		return nil, errors.New("apisvc: transport is required")
	}
	if strings.TrimSpace(cfg.BasePath) == "" {
		return nil, errors.New("apisvc: base path is required")
	}
	if idOf == nil {
		return nil, fmt.Errorf("apisvc: id accessor is required for %s", cfg.BasePath)
	}
	cfg = cfg.clone()
	return &Service[T, ID]{
		cfg:    cfg,
		idOf:   idOf,
		invoke: chainInterceptors(cfg.Interceptors, t.Do),
	}, nil
}

// MustNew is like New but panics on a configuration error.
// It is intended for package-level service declarations.
func MustNew[T any, ID Identifier](t Transport, cfg Config, idOf IDFunc[T, ID]) *Service[T, ID] {
	s, err := New(t, cfg, idOf)
	if err != nil {
		panic(err)
	}
	return s
}

// BasePath returns the resource's default path.
func (s *Service[T, ID]) BasePath() string {
	return s.cfg.BasePath
}

// FetchAll lists the resource, expecting a JSON array.
func (s *Service[T, ID]) FetchAll(ctx context.Context, params QueryParams) (env Envelope[[]T]) {
	defer recoverEnvelope(s.cfg.Logger, "FetchAll", &env)
	req, err := s.listRequest(ctx, params)
	if err != nil {
		return failure[[]T](err)
	}
	return roundTrip(ctx, s, req, decodeList[T])
}

// FetchAllPaged issues the same request as FetchAll but expects a Page object.
func (s *Service[T, ID]) FetchAllPaged(ctx context.Context, params QueryParams) (env Envelope[Page[T]]) {
	defer recoverEnvelope(s.cfg.Logger, "FetchAllPaged", &env)
	req, err := s.listRequest(ctx, params)
	if err != nil {
		return failure[Page[T]](err)
	}
	return roundTrip(ctx, s, req, decodePage[T])
}

// Fetch retrieves a single entity by id.
// The zero id is rejected before any network call.
func (s *Service[T, ID]) Fetch(ctx context.Context, id ID) Envelope[T] {
	var zero ID
	if id == zero {
		return failure[T](missingID("fetch"))
	}
	return s.fetch(ctx, FormatID(id))
}

// FetchCurrent retrieves a singleton resource from the base route,
// e.g. the current organization.
func (s *Service[T, ID]) FetchCurrent(ctx context.Context) Envelope[T] {
	return s.fetch(ctx, "")
}

func (s *Service[T, ID]) fetch(ctx context.Context, id string) (env Envelope[T]) {
	defer recoverEnvelope(s.cfg.Logger, "Fetch", &env)
	route, ok := s.cfg.route(OpFetch, id)
	if !ok {
		route = Route{Path: joinPath(s.cfg.BasePath, id)}
	}
	req, err := s.queryRequest(ctx, http.MethodGet, route, nil)
	if err != nil {
		return failure[T](err)
	}
	return roundTrip(ctx, s, req, decodeJSON[T])
}

// Create posts payload to the resource.
func (s *Service[T, ID]) Create(ctx context.Context, payload T) (env Envelope[T]) {
	defer recoverEnvelope(s.cfg.Logger, "Create", &env)
	if err := s.validatePayload(payload); err != nil {
		return failure[T](err)
	}
	route, ok := s.cfg.route(OpCreate, "")
	if !ok {
		route = Route{Path: s.cfg.BasePath}
	}
	req, err := s.bodyRequest(ctx, http.MethodPost, route, payload)
	if err != nil {
		return failure[T](err)
	}
	return roundTrip(ctx, s, req, decodeJSON[T])
}

// Update puts payload to the entity route named by its id.
// A payload without an id fails before any network call.
func (s *Service[T, ID]) Update(ctx context.Context, payload T) (env Envelope[T]) {
	defer recoverEnvelope(s.cfg.Logger, "Update", &env)
	id, ok := s.idOf(payload)
	if !ok {
		return failure[T](missingID("update"))
	}
	if err := s.validatePayload(payload); err != nil {
		return failure[T](err)
	}
	idStr := FormatID(id)
	route, ok := s.cfg.route(OpUpdate, idStr)
	if !ok {
		route = Route{Path: joinPath(s.cfg.BasePath, idStr)}
	}
	req, err := s.bodyRequest(ctx, http.MethodPut, route, payload)
	if err != nil {
		return failure[T](err)
	}
	return roundTrip(ctx, s, req, decodeJSON[T])
}

// Delete removes the entity with the given id.
// The zero id is rejected before any network call.
func (s *Service[T, ID]) Delete(ctx context.Context, id ID) (env Envelope[Empty]) {
	defer recoverEnvelope(s.cfg.Logger, "Delete", &env)
	var zero ID
	if id == zero {
		return failure[Empty](missingID("delete"))
	}
	idStr := FormatID(id)
	route, ok := s.cfg.route(OpDelete, idStr)
	if !ok {
		route = Route{Path: joinPath(s.cfg.BasePath, idStr)}
	}
	req, err := s.queryRequest(ctx, http.MethodDelete, route, nil)
	if err != nil {
		return failure[Empty](err)
	}
	return roundTrip(ctx, s, req, decodeEmpty)
}

// CustomRequest sends an arbitrary request through the service's interceptors
// and envelope normalization. The tenant id is not injected; path is used as is.
//
//	stats := apisvc.CustomRequest[Stats](ctx, calls, http.MethodGet, "/service-calls/stats", nil)
func CustomRequest[R any, T any, ID Identifier](ctx context.Context, s *Service[T, ID], method, path string, body any) Envelope[R] {
	return Send[R](ctx, s, method, Route{Path: path}, body)
}

// Send is CustomRequest with explicit query parameters.
func Send[R any, T any, ID Identifier](ctx context.Context, s *Service[T, ID], method string, route Route, body any) (env Envelope[R]) {
	defer recoverEnvelope(s.cfg.Logger, "Send", &env)
	if method == "" || route.Path == "" {
		return failure[R](NewError(KindClientValidation, "method and path are required"))
	}
	req := &Request{
		Method: strings.ToUpper(method),
		Path:   route.Path,
		Query:  route.Query,
		Body:   body,
	}
	return roundTrip(ctx, s, req, decodeJSON[R])
}

func (s *Service[T, ID]) listRequest(ctx context.Context, params QueryParams) (*Request, error) {
	route, ok := s.cfg.route(OpFetch, "")
	if !ok {
		route = Route{Path: s.cfg.BasePath}
	}
	route.Query = route.Query.Merge(params)
	return s.queryRequest(ctx, http.MethodGet, route, nil)
}

// queryRequest builds a request that carries the tenant id in the query string.
func (s *Service[T, ID]) queryRequest(ctx context.Context, method string, route Route, body any) (*Request, error) {
	query := route.Query.Merge(nil)
	if s.cfg.IncludeOrgID {
		if orgID, ok := s.cfg.Tenant(ctx); ok {
			query.Set(s.cfg.OrgIDKey, orgID)
		}
	}
	if _, err := query.Encode(); err != nil {
		return nil, NewError(KindClientValidation, err.Error())
	}
	return &Request{
		Method: method,
		Path:   route.Path,
		Query:  query,
		Body:   body,
	}, nil
}

// bodyRequest builds a request that carries the tenant id in the JSON body.
func (s *Service[T, ID]) bodyRequest(ctx context.Context, method string, route Route, payload T) (*Request, error) {
	if _, err := route.Query.Encode(); err != nil {
		return nil, NewError(KindClientValidation, err.Error())
	}
	var body any = payload
	if s.cfg.IncludeOrgID {
		if orgID, ok := s.cfg.Tenant(ctx); ok {
			stamped, err := stampBody(payload, s.cfg.OrgIDKey, orgID)
			if err != nil {
				return nil, err
			}
			body = stamped
		}
	}
	return &Request{
		Method: method,
		Path:   route.Path,
		Query:  route.Query,
		Body:   body,
	}, nil
}

// stampBody re-encodes payload as a JSON object with key set to orgID.
func stampBody(payload any, key string, orgID int64) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, Errorf(KindClientValidation, "encode payload: %v", err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, NewError(KindClientValidation, "payload must encode to a JSON object")
	}
	fields[key] = json.RawMessage(strconv.FormatInt(orgID, 10))
	return fields, nil
}

func (s *Service[T, ID]) validatePayload(payload T) error {
	if s.cfg.SkipValidation {
		return nil
	}
	rv := reflect.ValueOf(payload)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(rv.Interface())
}

func missingID(op string) *Error {
	return Errorf(KindClientValidation, "%s requires an id", op).WithDetail("id", "required")
}

// recoverEnvelope turns a panic in the deferring operation into an error
// envelope. It must be deferred directly.
func recoverEnvelope[R any](logger *slog.Logger, op string, env *Envelope[R]) {
	rec := recover()
	if rec == nil {
		return
	}
	logger.Error("PANIC recovered",
		slog.String("operation", op),
		slog.Any("panic", rec),
		slog.String("stack", string(debug.Stack())))
	*env = failure[R](Errorf(KindTransportUnreachable, "internal error (panic): %v", rec))
}

// roundTrip executes req through the interceptor chain and normalizes the outcome.
// Every failure is an envelope; callers recover panics with recoverEnvelope.
func roundTrip[R any, T any, ID Identifier](ctx context.Context, s *Service[T, ID], req *Request, decode func([]byte) (R, error)) Envelope[R] {
	logger := s.cfg.Logger
	if err := ctx.Err(); err != nil {
		return failure[R](err)
	}

	res, err := s.invoke(ctx, req)
	if res != nil && res.Status < 100 {
		if err == nil {
			err = Errorf(KindTransportUnreachable, "transport returned invalid status %d", res.Status)
		}
		res = nil
	}
	if err != nil {
		var statusErr *StatusError
		switch {
		case errors.As(err, &statusErr):
		case res != nil && !res.Success():
			err = &StatusError{Response: res, Message: err.Error()}
		case errors.Is(ctx.Err(), context.Canceled):
			err = fmt.Errorf("%w: %v", context.Canceled, err)
		}
		return failure[R](err)
	}
	if res == nil {
		return failure[R](NewError(KindTransportUnreachable, "transport returned no response"))
	}
	if !res.Success() {
		return failure[R](&StatusError{
			Response: res,
			Message:  fmt.Sprintf("request failed with status code %d", res.Status),
		})
	}

	data, err := decode(res.Body)
	if err != nil {
		logger.Warn("response shape mismatch",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Int("status", res.Status),
			slog.Any("error", err))
		return failure[R](Errorf(KindContractViolation, "%s %s: %v", req.Method, req.Path, err).
			WithDetail("status", res.Status))
	}
	return success(res.Status, data)
}

func decodeJSON[R any](body []byte) (R, error) {
	var out R
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("expected a JSON array")
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}

func decodePage[T any](body []byte) (Page[T], error) {
	var page Page[T]
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return page, errors.New("expected a paged JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return page, fmt.Errorf("decode page: %w", err)
	}
	if _, ok := fields["items"]; !ok {
		return page, errors.New(`paged response has no "items" field`)
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return page, fmt.Errorf("decode page: %w", err)
	}
	return page, nil
}

func decodeEmpty([]byte) (Empty, error) {
	return nil, nil
}
