package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/stayops/apisvc"
	"github.com/stayops/apisvc/httpclient"
	"github.com/stayops/apisvc/internal/catalog"
	"github.com/stayops/apisvc/internal/session"
	"github.com/stayops/apisvc/middleware"
	"github.com/stayops/apisvc/resources"
)

type CLI struct {
	Globals

	Version  VersionCmd  `cmd:"" help:"Print version information."`
	List     ListCmd     `cmd:"" help:"List a resource."`
	Get      GetCmd      `cmd:"" help:"Fetch one entity by id."`
	Create   CreateCmd   `cmd:"" help:"Create an entity from a JSON document."`
	Update   UpdateCmd   `cmd:"" help:"Update an entity from a JSON document."`
	Delete   DeleteCmd   `cmd:"" help:"Delete an entity by id."`
	Request  RequestCmd  `cmd:"" help:"Send an arbitrary request."`
	Overview OverviewCmd `cmd:"" help:"Load departments, roles and users of the active organization."`
}

type Globals struct {
	Config    string            `help:"Resource catalog file." short:"c" type:"path" env:"APISVC_CONFIG"`
	BaseURL   string            `help:"Backend root URL, overrides the catalog." name:"base-url" env:"APISVC_BASE_URL"`
	Token     string            `help:"Bearer token, overrides the catalog." env:"APISVC_TOKEN"`
	Org       int64             `help:"Active organization id. Defaults to the token's organization claim."`
	Timeout   time.Duration     `help:"HTTP timeout, overrides the catalog."`
	Header    map[string]string `help:"Extra request header, repeatable (name=value)." short:"H"`
	LogLevel  string            `help:"Log level." enum:"debug,info,warn,error" default:"warn" name:"log-level"`
	LogFormat string            `help:"Log format." enum:"text,json" default:"text" name:"log-format"`
}

// process holds the command context and standard files, replaced in tests.
type process struct {
	ctx      context.Context
	in       io.Reader
	out, err io.Writer
}

// errFailed marks a command whose envelope carried an error; it is already printed.
var errFailed = errors.New("request failed")

type VersionCmd struct{}

func (c *VersionCmd) Run(p *process) error {
	fmt.Fprintln(p.out, version())
	return nil
}

type ListCmd struct {
	Resource string            `arg:"" help:"Resource name from the catalog."`
	Param    map[string]string `help:"Query parameter, repeatable (key=value)." short:"p"`
}

func (c *ListCmd) Run(g *Globals, p *process) error {
	env, err := g.open(p)
	if err != nil {
		return err
	}
	e, err := env.lookup(c.Resource)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(c.Param))
	for k := range c.Param {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var params apisvc.QueryParams
	for _, k := range keys {
		params.Set(k, c.Param[k])
	}
	return env.print(e.List(env.ctx, params))
}

type GetCmd struct {
	Resource string `arg:"" help:"Resource name from the catalog."`
	ID       string `arg:"" optional:"" help:"Entity id. Omit for singleton resources."`
}

func (c *GetCmd) Run(g *Globals, p *process) error {
	env, err := g.open(p)
	if err != nil {
		return err
	}
	e, err := env.lookup(c.Resource)
	if err != nil {
		return err
	}
	if c.ID == "" {
		return env.print(e.Service.FetchCurrent(env.ctx))
	}
	return env.print(e.Service.Fetch(env.ctx, c.ID))
}

type CreateCmd struct {
	Resource string `arg:"" help:"Resource name from the catalog."`
	Body     string `arg:"" help:"JSON document, or - to read stdin."`
}

func (c *CreateCmd) Run(g *Globals, p *process) error {
	env, err := g.open(p)
	if err != nil {
		return err
	}
	e, err := env.lookup(c.Resource)
	if err != nil {
		return err
	}
	record, err := readRecord(c.Body, p.in)
	if err != nil {
		return err
	}
	return env.print(e.Service.Create(env.ctx, record))
}

type UpdateCmd struct {
	Resource string `arg:"" help:"Resource name from the catalog."`
	Body     string `arg:"" help:"JSON document including the id, or - to read stdin."`
}

func (c *UpdateCmd) Run(g *Globals, p *process) error {
	env, err := g.open(p)
	if err != nil {
		return err
	}
	e, err := env.lookup(c.Resource)
	if err != nil {
		return err
	}
	record, err := readRecord(c.Body, p.in)
	if err != nil {
		return err
	}
	return env.print(e.Service.Update(env.ctx, record))
}

type DeleteCmd struct {
	Resource string `arg:"" help:"Resource name from the catalog."`
	ID       string `arg:"" help:"Entity id."`
}

func (c *DeleteCmd) Run(g *Globals, p *process) error {
	env, err := g.open(p)
	if err != nil {
		return err
	}
	e, err := env.lookup(c.Resource)
	if err != nil {
		return err
	}
	return env.print(e.Service.Delete(env.ctx, c.ID))
}

type RequestCmd struct {
	Method string `arg:"" help:"HTTP method."`
	Path   string `arg:"" help:"Path below the base URL, e.g. /service-calls/5/close."`
	Body   string `arg:"" optional:"" help:"JSON body, or - to read stdin."`
}

func (c *RequestCmd) Run(g *Globals, p *process) error {
	env, err := g.open(p)
	if err != nil {
		return err
	}
	var body any
	if c.Body != "" {
		raw, err := readBody(c.Body, p.in)
		if err != nil {
			return err
		}
		body = raw
	}
	return env.print(env.catalog.Request(env.ctx, c.Method, c.Path, body))
}

type OverviewCmd struct{}

func (c *OverviewCmd) Run(g *Globals, p *process) error {
	env, err := g.open(p)
	if err != nil {
		return err
	}
	client := resources.New(env.transport,
		resources.WithTenant(env.tenant),
		resources.WithInterceptors(env.interceptors...),
		resources.WithLogger(env.logger))
	return env.print(client.Overview(env.ctx))
}

// environment is everything a command needs to talk to the backend.
type environment struct {
	ctx          context.Context
	logger       *slog.Logger
	transport    apisvc.Transport
	tenant       apisvc.TenantFunc
	interceptors []apisvc.Interceptor
	catalog      *catalog.Catalog
	out          io.Writer
}

func (g *Globals) open(p *process) (*environment, error) {
	logger := newLogger(p.err, g.LogLevel, g.LogFormat)

	file := &catalog.File{}
	if g.Config != "" {
		f, err := catalog.Load(g.Config)
		if err != nil {
			return nil, err
		}
		file = f
	}
	baseURL := firstNonEmpty(g.BaseURL, file.BaseURL)
	if baseURL == "" {
		return nil, errors.New("no backend configured: set --base-url or baseURL in the catalog")
	}
	token := firstNonEmpty(g.Token, file.Token)

	opts := []httpclient.Option{
		httpclient.WithToken(token),
		httpclient.WithLogger(logger),
	}
	if timeout := firstPositive(g.Timeout, file.Timeout); timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(timeout))
	}
	transport := httpclient.New(baseURL, opts...)

	tenant := session.Tenant(g.Org, token, file.OrgClaim)
	interceptors := []apisvc.Interceptor{middleware.LoggingInterceptor(logger)}
	if len(g.Header) > 0 {
		header := make(http.Header, len(g.Header))
		for k, v := range g.Header {
			header.Set(k, v)
		}
		interceptors = append(interceptors, middleware.StaticHeaders(header))
	}
	cat, err := catalog.FromFile(transport, file,
		catalog.WithTenant(tenant),
		catalog.WithInterceptors(interceptors...),
		catalog.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &environment{
		ctx:          p.ctx,
		logger:       logger,
		transport:    transport,
		tenant:       tenant,
		interceptors: interceptors,
		catalog:      cat,
		out:          p.out,
	}, nil
}

func (e *environment) lookup(name string) (*catalog.Entry, error) {
	entry, ok := e.catalog.Lookup(name)
	if !ok {
		names := e.catalog.Names()
		if len(names) == 0 {
			return nil, fmt.Errorf("unknown resource %q: catalog is empty", name)
		}
		return nil, fmt.Errorf("unknown resource %q (known: %s)", name, strings.Join(names, ", "))
	}
	return entry, nil
}

// print writes the envelope as indented JSON and reports errFailed for error envelopes.
func (e *environment) print(res catalog.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, string(data))
	if !res.OK() {
		return errFailed
	}
	return nil
}

func readBody(arg string, stdin io.Reader) (json.RawMessage, error) {
	data := []byte(arg)
	if arg == "-" {
		var err error
		if data, err = io.ReadAll(stdin); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	}
	if !json.Valid(data) {
		return nil, errors.New("body is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func readRecord(arg string, stdin io.Reader) (catalog.Record, error) {
	data, err := readBody(arg, stdin)
	if err != nil {
		return nil, err
	}
	var record catalog.Record
	if err := json.Unmarshal(data, &record); err != nil || record == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return record, nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func run(args []string, p *process) int {
	if p.ctx == nil {
		p.ctx = context.Background()
	}
	cli := &CLI{}
	exitCode := -1
	parser, err := kong.New(cli,
		kong.Name("apisvc"),
		kong.Description("Command line client for the hotel operations API."),
		kong.UsageOnError(),
		kong.Writers(p.out, p.err),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		fmt.Fprintf(p.err, "apisvc: %v\n", err)
		return 2
	}
	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(p.err, "apisvc: %v\n", err)
		return 2
	}
	if err := kctx.Run(&cli.Globals, p); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(p.err, "apisvc: %v\n", err)
		}
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(os.Args[1:], &process{ctx: ctx, in: os.Stdin, out: os.Stdout, err: os.Stderr})
	stop()
	os.Exit(code)
}
