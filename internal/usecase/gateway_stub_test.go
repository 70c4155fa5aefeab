package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/core/port"
	"github.com/qwezhou/AAA-Code/internal/repository"
)

// fakeGateway routes calls to configurable functions so each test controls
// the upstream behaviour precisely.
type fakeGateway struct {
	requestFn  func(ctx context.Context, session *domain.SessionRecord, path string, opts port.RequestOptions) (*domain.UpstreamResponse, error)
	graphQLFn  func(ctx context.Context, session *domain.SessionRecord, target domain.Domain, query string, variables map[string]any) (*domain.GraphQLResult, error)
	fallbackFn func(ctx context.Context, session *domain.SessionRecord, target domain.Domain, queries []string, variables map[string]any) (*domain.GraphQLResult, error)
}

func (g *fakeGateway) Request(ctx context.Context, session *domain.SessionRecord, path string, opts port.RequestOptions) (*domain.UpstreamResponse, error) {
	if g.requestFn == nil {
		return nil, errors.New("unexpected Request call")
	}
	return g.requestFn(ctx, session, path, opts)
}

func (g *fakeGateway) GraphQL(ctx context.Context, session *domain.SessionRecord, target domain.Domain, query string, variables map[string]any) (*domain.GraphQLResult, error) {
	if g.graphQLFn == nil {
		return nil, errors.New("unexpected GraphQL call")
	}
	return g.graphQLFn(ctx, session, target, query, variables)
}

func (g *fakeGateway) GraphQLWithFallback(ctx context.Context, session *domain.SessionRecord, target domain.Domain, queries []string, variables map[string]any) (*domain.GraphQLResult, error) {
	if g.fallbackFn != nil {
		return g.fallbackFn(ctx, session, target, queries, variables)
	}
	// Default fallback semantics: try each variant, return first success or
	// the last attempt's result.
	var last *domain.GraphQLResult
	var lastErr error
	for _, query := range queries {
		result, err := g.GraphQL(ctx, session, target, query, variables)
		if err != nil {
			last, lastErr = nil, err
			continue
		}
		if result.OK() {
			return result, nil
		}
		last, lastErr = result, nil
	}
	return last, lastErr
}

var _ port.Gateway = (*fakeGateway)(nil)

// graphQLOK builds a structurally successful result with the given data payload.
func graphQLOK(t *testing.T, data string) *domain.GraphQLResult {
	t.Helper()
	return &domain.GraphQLResult{
		StatusCode: 200,
		Data:       json.RawMessage(data),
		Raw:        []byte(fmt.Sprintf(`{"data":%s}`, data)),
	}
}

func graphQLErrors(messages ...string) *domain.GraphQLResult {
	result := &domain.GraphQLResult{StatusCode: 200}
	for _, msg := range messages {
		result.Errors = append(result.Errors, domain.GraphQLError{Message: msg})
	}
	return result
}

type fakeSessionStore struct {
	records map[string]domain.SessionRecord
	nextID  int

	createErr error
	updateErr error
	deleted   []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{records: make(map[string]domain.SessionRecord)}
}

func (s *fakeSessionStore) Create(_ context.Context, record domain.SessionRecord) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.nextID++
	id := fmt.Sprintf("session-%d", s.nextID)
	s.records[id] = record
	return id, nil
}

func (s *fakeSessionStore) Get(_ context.Context, sessionID string) (*domain.SessionRecord, error) {
	record, ok := s.records[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := record
	return &copy, nil
}

func (s *fakeSessionStore) Update(_ context.Context, sessionID string, record domain.SessionRecord) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.records[sessionID]; !ok {
		return repository.ErrNotFound
	}
	s.records[sessionID] = record
	return nil
}

func (s *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	s.deleted = append(s.deleted, sessionID)
	delete(s.records, sessionID)
	return nil
}

var _ port.SessionStore = (*fakeSessionStore)(nil)
