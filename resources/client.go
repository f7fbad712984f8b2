// Package resources declares the hotel operations resources on top of apisvc.
package resources

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/stayops/apisvc"
)

// Client groups the services of every hotel resource. All services share one
// transport and one set of interceptors.
type Client struct {
	Categories    *apisvc.Service[Category, int64]
	Departments   *apisvc.Service[Department, int64]
	Roles         *apisvc.Service[Role, int64]
	Organizations *apisvc.Service[Organization, int64]
	Users         *apisvc.Service[User, int64]
	ServiceCalls  *apisvc.Service[ServiceCall, int64]
	Rooms         *apisvc.Service[Room, int64]
}

type options struct {
	tenant       apisvc.TenantFunc
	interceptors []apisvc.Interceptor
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithTenant sets how the active organization is resolved.
// Defaults to apisvc.TenantFromContext.
func WithTenant(fn apisvc.TenantFunc) Option {
	return func(o *options) {
		o.tenant = fn
	}
}

// WithInterceptors appends interceptors to every service.
func WithInterceptors(interceptors ...apisvc.Interceptor) Option {
	return func(o *options) {
		o.interceptors = append(o.interceptors, interceptors...)
	}
}

// WithLogger sets the logger used for recovered panics and contract violations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New builds every resource service on top of t.
func New(t apisvc.Transport, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cfg := func(path string, tenant bool) apisvc.Config {
		return apisvc.Config{
			BasePath:     path,
			IncludeOrgID: tenant,
			Tenant:       o.tenant,
			Interceptors: o.interceptors,
			Logger:       o.logger,
		}
	}

	departments := cfg("/departments", true)
	departments.Routes = map[apisvc.Operation]apisvc.RouteResolver{
		apisvc.OpDelete: func(id string) apisvc.Route {
			return apisvc.Route{
				Path:  "/departments",
				Query: apisvc.QueryParams{{Key: "departmentId", Value: id}},
			}
		},
	}

	return &Client{
		Categories:    apisvc.MustNew(t, cfg("/categories", true), func(c Category) (int64, bool) { return c.ID, c.ID != 0 }),
		Departments:   apisvc.MustNew(t, departments, func(d Department) (int64, bool) { return d.ID, d.ID != 0 }),
		Roles:         apisvc.MustNew(t, cfg("/roles", true), func(r Role) (int64, bool) { return r.ID, r.ID != 0 }),
		Organizations: apisvc.MustNew(t, cfg("/organizations", false), func(o Organization) (int64, bool) { return o.ID, o.ID != 0 }),
		Users:         apisvc.MustNew(t, cfg("/users", true), func(u User) (int64, bool) { return u.ID, u.ID != 0 }),
		ServiceCalls:  apisvc.MustNew(t, cfg("/service-calls", true), func(c ServiceCall) (int64, bool) { return c.ID, c.ID != 0 }),
		Rooms:         apisvc.MustNew(t, cfg("/rooms", true), func(r Room) (int64, bool) { return r.ID, r.ID != 0 }),
	}
}

// ListUsers fetches one page of users matching filter.
func (c *Client) ListUsers(ctx context.Context, filter UserFilter) apisvc.Envelope[apisvc.Page[User]] {
	params, err := filter.Query()
	if err != nil {
		return apisvc.Envelope[apisvc.Page[User]]{
			Status: http.StatusBadRequest,
			Err:    apisvc.NewError(apisvc.KindClientValidation, err.Error()),
		}
	}
	return c.Users.FetchAllPaged(ctx, params)
}

// ListServiceCalls fetches one page of service calls matching filter.
func (c *Client) ListServiceCalls(ctx context.Context, filter ServiceCallFilter) apisvc.Envelope[apisvc.Page[ServiceCall]] {
	params, err := filter.Query()
	if err != nil {
		return apisvc.Envelope[apisvc.Page[ServiceCall]]{
			Status: http.StatusBadRequest,
			Err:    apisvc.NewError(apisvc.KindClientValidation, err.Error()),
		}
	}
	return c.ServiceCalls.FetchAllPaged(ctx, params)
}

// ListRooms fetches the housekeeping board.
func (c *Client) ListRooms(ctx context.Context, filter RoomFilter) apisvc.Envelope[[]Room] {
	return c.Rooms.FetchAll(ctx, filter.Query())
}

// CloseServiceCall marks a service call as closed.
func (c *Client) CloseServiceCall(ctx context.Context, id int64) apisvc.Envelope[ServiceCall] {
	path := "/service-calls/" + strconv.FormatInt(id, 10) + "/close"
	return apisvc.CustomRequest[ServiceCall](ctx, c.ServiceCalls, http.MethodPost, path, nil)
}

// AssignServiceCall hands a service call to a staff member.
func (c *Client) AssignServiceCall(ctx context.Context, id, assigneeID int64) apisvc.Envelope[ServiceCall] {
	path := "/service-calls/" + strconv.FormatInt(id, 10) + "/assign"
	body := map[string]int64{"assigneeId": assigneeID}
	return apisvc.CustomRequest[ServiceCall](ctx, c.ServiceCalls, http.MethodPost, path, body)
}

// Overview is the data behind the staff administration screen.
type Overview struct {
	Departments []Department      `json:"departments"`
	Roles       []Role            `json:"roles"`
	Users       apisvc.Page[User] `json:"users"`
}

// Overview loads departments, roles and the first page of users concurrently.
// The first failing envelope is returned; the others are canceled.
func (c *Client) Overview(ctx context.Context) apisvc.Envelope[Overview] {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		env := c.Departments.FetchAll(gctx, nil)
		out.Departments = env.Data
		return envelopeErr(env.Status, env.Err)
	})
	g.Go(func() error {
		env := c.Roles.FetchAll(gctx, nil)
		out.Roles = env.Data
		return envelopeErr(env.Status, env.Err)
	})
	g.Go(func() error {
		env := c.Users.FetchAllPaged(gctx, nil)
		out.Users = env.Data
		return envelopeErr(env.Status, env.Err)
	})

	if err := g.Wait(); err != nil {
		return overviewFailure(err)
	}
	return apisvc.Envelope[Overview]{Status: http.StatusOK, Data: out}
}

func overviewFailure(err error) apisvc.Envelope[Overview] {
	var fe *failedEnvelope
	if errors.As(err, &fe) {
		return apisvc.Envelope[Overview]{Status: fe.status, Err: fe.err}
	}
	status, svcErr := apisvc.Normalize(err)
	return apisvc.Envelope[Overview]{Status: status, Err: svcErr}
}

// failedEnvelope carries an envelope error through errgroup.
type failedEnvelope struct {
	status int
	err    *apisvc.Error
}

func (f *failedEnvelope) Error() string { return f.err.Error() }

func envelopeErr(status int, err *apisvc.Error) error {
	if err == nil {
		return nil
	}
	return &failedEnvelope{status: status, err: err}
}
