package apisvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	err := NewError(KindHTTP, "resource not found")
	assert.Equal(t, KindHTTP, err.Kind)
	assert.Equal(t, "resource not found", err.Message)
}

func TestErrorf(t *testing.T) {
	err := Errorf(KindClientValidation, "invalid field: %s", "email")
	assert.Equal(t, "invalid field: email", err.Message)
	assert.Equal(t, "client_validation: invalid field: email", err.Error())
}

func TestError_WithDetail(t *testing.T) {
	base := NewError(KindClientValidation, "bad")
	withOne := base.WithDetail("id", "required")
	withTwo := withOne.WithDetails(map[string]any{"name": "too long"})

	assert.Nil(t, base.Details, "original error is unchanged")
	assert.Len(t, withOne.Details, 1)
	assert.Len(t, withTwo.Details, 2)
	assert.Same(t, withTwo, withTwo.WithDetails(nil))
}

func TestKind_Status(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindClientValidation, http.StatusBadRequest},
		{KindAborted, 499},
		{KindTransportUnreachable, http.StatusInternalServerError},
		{KindContractViolation, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.Status(), tt.kind)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		input      error
		wantStatus int
		wantKind   Kind
		wantMsg    string
	}{
		{
			name: "server message",
			input: &StatusError{
				Response: &Response{Status: 404, Body: []byte(`{"message":"not found"}`)},
				Message:  "request failed with status code 404",
			},
			wantStatus: 404,
			wantKind:   KindHTTP,
			wantMsg:    "not found",
		},
		{
			name: "server message list",
			input: &StatusError{
				Response: &Response{Status: 400, Body: []byte(`{"message":["name must not be empty","floor must be positive"]}`)},
				Message:  "request failed with status code 400",
			},
			wantStatus: 400,
			wantKind:   KindHTTP,
			wantMsg:    "name must not be empty; floor must be positive",
		},
		{
			name: "non-text server message falls back to transport message",
			input: &StatusError{
				Response: &Response{Status: 422, Body: []byte(`{"message":{"code":17}}`)},
				Message:  "request failed with status code 422",
			},
			wantStatus: 422,
			wantKind:   KindHTTP,
			wantMsg:    "request failed with status code 422",
		},
		{
			name: "transport message when body has none",
			input: &StatusError{
				Response: &Response{Status: 502, Body: []byte(`<html>bad gateway</html>`)},
				Message:  "request failed with status code 502",
			},
			wantStatus: 502,
			wantKind:   KindHTTP,
			wantMsg:    "request failed with status code 502",
		},
		{
			name:       "unknown error when nothing describes the failure",
			input:      &StatusError{Response: &Response{Status: 418, Body: []byte(`{"message":""}`)}},
			wantStatus: 418,
			wantKind:   KindHTTP,
			wantMsg:    "Unknown error",
		},
		{
			name:       "wrapped status error",
			input:      fmt.Errorf("put: %w", &StatusError{Response: &Response{Status: 409, Body: []byte(`{"message":"conflict"}`)}}),
			wantStatus: 409,
			wantKind:   KindHTTP,
			wantMsg:    "conflict",
		},
		{
			name:       "status error without a real status",
			input:      &StatusError{Response: &Response{Status: 0}, Message: "connection reset"},
			wantStatus: 500,
			wantKind:   KindTransportUnreachable,
			wantMsg:    "connection reset",
		},
		{
			name:       "service error passthrough",
			input:      NewError(KindClientValidation, "update requires an id"),
			wantStatus: 400,
			wantKind:   KindClientValidation,
			wantMsg:    "update requires an id",
		},
		{
			name:       "context canceled",
			input:      &url.Error{Op: "Get", URL: "http://api/rooms", Err: context.Canceled},
			wantStatus: 499,
			wantKind:   KindAborted,
			wantMsg:    "request canceled",
		},
		{
			name:       "network down",
			input:      errors.New("dial tcp 10.0.0.1:443: connect: connection refused"),
			wantStatus: 500,
			wantKind:   KindTransportUnreachable,
			wantMsg:    "dial tcp 10.0.0.1:443: connect: connection refused",
		},
		{
			name:       "deadline is unreachable, not aborted",
			input:      context.DeadlineExceeded,
			wantStatus: 500,
			wantKind:   KindTransportUnreachable,
			wantMsg:    "context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := Normalize(tt.input)
			require.NotNil(t, err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.Equal(t, tt.wantMsg, err.Message)
		})
	}
}

func TestNormalize_Nil(t *testing.T) {
	status, err := Normalize(nil)
	assert.Equal(t, 0, status)
	assert.Nil(t, err)
}

func TestNormalize_ValidationErrors(t *testing.T) {
	type payload struct {
		Email string `validate:"omitempty,email"`
		Floor int    `validate:"gte=0,lte=120"`
	}

	status, result := Normalize(validator.New().Struct(payload{Email: "invalid", Floor: -1}))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, KindClientValidation, result.Kind)
	assert.Equal(t, "must be a valid email address", result.Details["Email"])
	assert.Equal(t, "must be at least 0", result.Details["Floor"])
}

func TestStatusError_Error(t *testing.T) {
	err := &StatusError{Response: &Response{Status: 503}}
	assert.Equal(t, "request failed with status code 503", err.Error())
}
