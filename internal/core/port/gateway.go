package port

import (
	"context"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
)

// RequestOptions tunes a single upstream exchange.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	// Domain overrides the target origin. When empty the session's domain
	// is used, or the primary domain for anonymous calls.
	Domain domain.Domain
	Body   []byte
	Header map[string]string
}

// Gateway issues authenticated HTTP and GraphQL requests to the judging
// platform. A nil session performs an anonymous call (used for the secondary
// domain's public catalog).
type Gateway interface {
	Request(ctx context.Context, session *domain.SessionRecord, path string, opts RequestOptions) (*domain.UpstreamResponse, error)

	// GraphQL issues a single query against the domain's /graphql endpoint.
	GraphQL(ctx context.Context, session *domain.SessionRecord, target domain.Domain, query string, variables map[string]any) (*domain.GraphQLResult, error)

	// GraphQLWithFallback tries each query variant in order with identical
	// variables and returns the first structural success. When every variant
	// fails, the last attempt's result is returned as the authoritative
	// diagnostic.
	GraphQLWithFallback(ctx context.Context, session *domain.SessionRecord, target domain.Domain, queries []string, variables map[string]any) (*domain.GraphQLResult, error)
}
