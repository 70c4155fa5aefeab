package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUpstreamUnreachable indicates the platform could not be reached at the
// network level. Non-2xx responses are surfaced as data, not as this error.
var ErrUpstreamUnreachable = errors.New("upstream unreachable")

// UpstreamError carries structured diagnostics from a failed upstream
// exchange so callers can display or log the platform's own error payload.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s failed: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s failed", e.Operation)
}

// UpstreamResponse is a raw HTTP exchange result. Non-2xx statuses are data,
// not errors.
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the response carries a 2xx status.
func (r *UpstreamResponse) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// GraphQLError is one entry of a GraphQL-level errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLResult is the decoded envelope of one GraphQL attempt.
type GraphQLResult struct {
	StatusCode int
	Data       json.RawMessage
	Errors     []GraphQLError
	Raw        []byte
}

// OK reports whether the attempt succeeded structurally: 2xx status, a
// decodable envelope with data, and no GraphQL-level errors.
func (r *GraphQLResult) OK() bool {
	if r == nil || r.StatusCode < 200 || r.StatusCode >= 300 {
		return false
	}
	if len(r.Errors) > 0 {
		return false
	}
	return len(r.Data) > 0 && string(r.Data) != "null"
}

// ErrorMessage flattens the GraphQL errors array for diagnostics.
func (r *GraphQLResult) ErrorMessage() string {
	if r == nil || len(r.Errors) == 0 {
		return ""
	}
	msg := r.Errors[0].Message
	for _, e := range r.Errors[1:] {
		msg += "; " + e.Message
	}
	return msg
}
