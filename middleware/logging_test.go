package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stayops/apisvc"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestLoggingInterceptor_Success(t *testing.T) {
	var buf bytes.Buffer
	interceptor := LoggingInterceptor(newBufferLogger(&buf))

	next := func(ctx context.Context, req *apisvc.Request) (*apisvc.Response, error) {
		return &apisvc.Response{Status: http.StatusOK}, nil
	}

	res, err := interceptor(context.Background(), &apisvc.Request{Method: "GET", Path: "/roles"}, next)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("expected status 200, got %d", res.Status)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "request started") {
		t.Error("expected 'request started' in log output")
	}
	if !strings.Contains(logOutput, "request completed") {
		t.Error("expected 'request completed' in log output")
	}
	if !strings.Contains(logOutput, "GET /roles") {
		t.Error("expected endpoint in log output")
	}
}

func TestLoggingInterceptor_Error(t *testing.T) {
	var buf bytes.Buffer
	interceptor := LoggingInterceptor(newBufferLogger(&buf))

	testErr := errors.New("connection refused")
	next := func(ctx context.Context, req *apisvc.Request) (*apisvc.Response, error) {
		return nil, testErr
	}

	_, err := interceptor(context.Background(), &apisvc.Request{Method: "POST", Path: "/users"}, next)
	if !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "request failed") {
		t.Error("expected 'request failed' in log output")
	}
	if !strings.Contains(logOutput, "connection refused") {
		t.Error("expected error message in log output")
	}
	if strings.Contains(logOutput, "request completed") {
		t.Error("did not expect 'request completed' in log output")
	}
}

func TestLoggingInterceptor_NilLogger(t *testing.T) {
	interceptor := LoggingInterceptor(nil)
	if interceptor == nil {
		t.Fatal("expected non-nil interceptor")
	}
}

func TestStaticHeaders(t *testing.T) {
	interceptor := StaticHeaders(http.Header{
		"Accept-Language": {"de"},
		"X-Client":        {"dashboard"},
	})

	var seen http.Header
	next := func(ctx context.Context, req *apisvc.Request) (*apisvc.Response, error) {
		seen = req.Header
		return &apisvc.Response{Status: http.StatusOK}, nil
	}

	original := &apisvc.Request{Method: "GET", Path: "/rooms", Header: http.Header{"Accept-Language": {"en"}}}
	if _, err := interceptor(context.Background(), original, next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seen.Get("Accept-Language") != "en" {
		t.Errorf("expected request header to win, got %s", seen.Get("Accept-Language"))
	}
	if seen.Get("X-Client") != "dashboard" {
		t.Errorf("expected static header, got %s", seen.Get("X-Client"))
	}
	if original.Header.Get("X-Client") != "" {
		t.Error("expected caller's request to be left untouched")
	}
}
