package apisvc

import "encoding/json"

// Empty represents a void response.
// The zero value is nil, which serializes to JSON null.
//
// Wire format: {"status": 204, "data": null}
type Empty *struct{}

// Envelope is the uniform result of every service operation.
// Err is nil on success, in which case Data holds the decoded payload.
// Status is always populated: the HTTP status when a response was obtained,
// otherwise the status of the error kind (500 for an unreachable transport).
type Envelope[T any] struct {
	Status int
	Data   T
	Err    *Error
}

// OK reports whether the envelope carries data rather than an error.
func (e Envelope[T]) OK() bool {
	return e.Err == nil
}

// ErrorMessage returns the error message, or "" on success.
func (e Envelope[T]) ErrorMessage() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Message
}

// successEnvelope and errorEnvelope are the two wire forms of an Envelope.
type successEnvelope struct {
	Status int `json:"status"`
	Data   any `json:"data"`
}

type errorEnvelope struct {
	Status  int            `json:"status"`
	Error   string         `json:"error"`
	Kind    Kind           `json:"kind,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// MarshalJSON encodes {"status", "data"} on success and {"status", "error"} on failure.
func (e Envelope[T]) MarshalJSON() ([]byte, error) {
	if e.Err != nil {
		return json.Marshal(errorEnvelope{
			Status:  e.Status,
			Error:   e.Err.Message,
			Kind:    e.Err.Kind,
			Details: e.Err.Details,
		})
	}
	return json.Marshal(successEnvelope{Status: e.Status, Data: e.Data})
}

func success[T any](status int, data T) Envelope[T] {
	return Envelope[T]{Status: status, Data: data}
}

func failure[T any](err error) Envelope[T] {
	status, svcErr := Normalize(err)
	if svcErr == nil {
		svcErr = NewError(KindTransportUnreachable, unknownErrorMessage)
		status = svcErr.Kind.Status()
	}
	if svcErr.Message == "" {
		svcErr = &Error{Kind: svcErr.Kind, Message: unknownErrorMessage, Details: svcErr.Details}
	}
	return Envelope[T]{Status: status, Err: svcErr}
}

// Page is a paged list response.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}
