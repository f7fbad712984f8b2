package apisvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies why an operation failed.
type Kind string

const (
	// KindTransportUnreachable means no HTTP response was obtained (network, DNS, timeout).
	KindTransportUnreachable Kind = "transport_unreachable"
	// KindHTTP means the server answered with a non-2xx status.
	KindHTTP Kind = "http_error"
	// KindClientValidation means the call was rejected before reaching the transport.
	KindClientValidation Kind = "client_validation"
	// KindAborted means the caller canceled the request.
	KindAborted Kind = "aborted"
	// KindContractViolation means the server replied with a payload of the wrong shape.
	KindContractViolation Kind = "contract_violation"
)

// unknownErrorMessage is the last-resort message when neither the server nor the
// transport described the failure.
const unknownErrorMessage = "Unknown error"

// Error is the error half of an Envelope.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates a new error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a copy of e with key set in its details.
func (e *Error) WithDetail(key string, value any) *Error {
	return e.WithDetails(map[string]any{key: value})
}

// WithDetails returns a copy of e with details merged in. e is not modified.
func (e *Error) WithDetails(details map[string]any) *Error {
	if len(details) == 0 {
		return e
	}
	out := *e
	out.Details = maps.Clone(e.Details)
	if out.Details == nil {
		out.Details = make(map[string]any, len(details))
	}
	maps.Copy(out.Details, details)
	return &out
}

// Status maps a Kind to the status reported when no HTTP response carries one.
func (k Kind) Status() int {
	switch k {
	case KindClientValidation:
		return http.StatusBadRequest
	case KindAborted:
		return 499 // Client Closed Request (Nginx standard)
	case KindTransportUnreachable, KindContractViolation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Normalize maps any error produced while executing a request to the status and
// Error placed in the envelope. A nil error yields (0, nil).
//
// Resolution order:
//   - *Error values pass through with their kind's status
//   - a *StatusError (server reachable, non-2xx) keeps the response status and
//     takes its message from the body's "message" field, then the transport's
//     message, then "Unknown error". A status below 100 is not a real answer
//     and falls through to unreachable
//   - context.Canceled becomes an aborted error
//   - validator errors become client validation errors with per-field details
//   - anything else is an unreachable transport: status 500 with the error text
func Normalize(err error) (int, *Error) {
	if err == nil {
		return 0, nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Response != nil && statusErr.Response.Status >= 100 {
		return statusErr.Response.Status, NewError(KindHTTP, statusErr.message())
	}

	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind.Status(), svcErr
	}

	if errors.Is(err, context.Canceled) {
		return KindAborted.Status(), NewError(KindAborted, "request canceled")
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make(map[string]any, len(valErrs))
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			msg := formatValidationError(ve)
			details[ve.Field()] = msg
			messages = append(messages, ve.Field()+": "+msg)
		}
		return KindClientValidation.Status(), &Error{
			Kind:    KindClientValidation,
			Message: strings.Join(messages, "; "),
			Details: details,
		}
	}

	msg := err.Error()
	if msg == "" {
		msg = unknownErrorMessage
	}
	return KindTransportUnreachable.Status(), NewError(KindTransportUnreachable, msg)
}

// StatusError is returned by a Transport when the server answered with a
// non-2xx status. Response is always non-nil.
type StatusError struct {
	Response *Response
	// Message is the transport's generic description of the failure.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Response != nil {
		return fmt.Sprintf("request failed with status code %d", e.Response.Status)
	}
	return unknownErrorMessage
}

// message applies the body.message → transport message → "Unknown error" fallback.
func (e *StatusError) message() string {
	if e.Response != nil && len(e.Response.Body) > 0 {
		var body struct {
			Message json.RawMessage `json:"message"`
		}
		if json.Unmarshal(e.Response.Body, &body) == nil {
			if msg := bodyMessage(body.Message); msg != "" {
				return msg
			}
		}
	}
	if e.Message != "" {
		return e.Message
	}
	return unknownErrorMessage
}

// bodyMessage reads a "message" that is either a string or a list of strings,
// as some validation backends send one entry per field.
func bodyMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var msg string
	if json.Unmarshal(raw, &msg) == nil {
		return msg
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, "; ")
	}
	return ""
}

// formatValidationError renders a field error as the message shown next to
// the field. Length bounds are phrased per kind: characters for strings,
// items for collections, plain numbers otherwise.
func formatValidationError(ve validator.FieldError) string {
	param := ve.Param()
	switch ve.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "min", "gte":
		return "must be at least " + param + unitOf(ve)
	case "max", "lte":
		return "must be at most " + param + unitOf(ve)
	case "len":
		return "must be exactly " + param + unitOf(ve)
	case "gt":
		return "must be greater than " + param + unitOf(ve)
	case "lt":
		return "must be less than " + param + unitOf(ve)
	}
	if param != "" {
		return fmt.Sprintf("failed %s=%s validation", ve.Tag(), param)
	}
	return fmt.Sprintf("failed %s validation", ve.Tag())
}

func unitOf(ve validator.FieldError) string {
	switch ve.Kind() {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	default:
		return ""
	}
}
