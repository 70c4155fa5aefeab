package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/core/port"
	"github.com/qwezhou/AAA-Code/internal/infra/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.UpstreamSettings{
		PrimaryBaseURL:   server.URL,
		SecondaryBaseURL: server.URL,
		RequestTimeout:   5 * time.Second,
	}, nil)

	return client, server
}

func TestRequest_AttachesSessionHeaders(t *testing.T) {
	var captured http.Header
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))

	session := &domain.SessionRecord{
		Domain:         domain.DomainPrimary,
		RawCookie:      "csrftoken=abc; LEETCODE_SESSION=xyz",
		CSRFToken:      "abc",
		LangPreference: "zh",
	}

	resp, err := client.Request(context.Background(), session, "/api/problems/all/", port.RequestOptions{})
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("expected 2xx, got %d", resp.StatusCode)
	}

	if captured.Get("Cookie") != session.RawCookie {
		t.Fatalf("expected raw cookie header, got %q", captured.Get("Cookie"))
	}
	if captured.Get("x-csrftoken") != "abc" {
		t.Fatalf("expected csrf header, got %q", captured.Get("x-csrftoken"))
	}
	if captured.Get("x-lang") != "zh" {
		t.Fatalf("expected lang header, got %q", captured.Get("x-lang"))
	}
	if captured.Get("Referer") != server.URL+"/" {
		t.Fatalf("expected referer %s/, got %q", server.URL, captured.Get("Referer"))
	}
	if captured.Get("Origin") != server.URL {
		t.Fatalf("expected origin %s, got %q", server.URL, captured.Get("Origin"))
	}
}

func TestRequest_AnonymousHasNoSessionHeaders(t *testing.T) {
	var captured http.Header
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))

	if _, err := client.Request(context.Background(), nil, "/graphql", port.RequestOptions{}); err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if captured.Get("Cookie") != "" {
		t.Fatalf("anonymous request must carry no cookie")
	}
	if captured.Get("x-csrftoken") != "" {
		t.Fatalf("anonymous request must carry no csrf token")
	}
}

func TestRequest_Non2xxIsDataNotError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"forbidden"}`))
	}))

	resp, err := client.Request(context.Background(), nil, "/problems/x/submit/", port.RequestOptions{Method: http.MethodPost})
	if err != nil {
		t.Fatalf("non-2xx must not be an error: %v", err)
	}
	if resp.OK() {
		t.Fatalf("403 must fail the OK check")
	}
	if string(resp.Body) != `{"detail":"forbidden"}` {
		t.Fatalf("expected body passthrough, got %s", resp.Body)
	}
}

func TestRequest_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // nothing is listening anymore

	client := NewClient(config.UpstreamSettings{PrimaryBaseURL: server.URL}, nil)

	_, err := client.Request(context.Background(), nil, "/graphql", port.RequestOptions{})
	if !errors.Is(err, domain.ErrUpstreamUnreachable) {
		t.Fatalf("expected ErrUpstreamUnreachable, got %v", err)
	}
}

func TestGraphQL_DecodesEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" || r.Method != http.MethodPost {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Variables["titleSlug"] != "two-sum" {
			t.Fatalf("expected variables passthrough, got %v", payload.Variables)
		}
		_, _ = w.Write([]byte(`{"data":{"question":{"questionId":"1"}}}`))
	}))

	result, err := client.GraphQL(context.Background(), nil, domain.DomainPrimary, "query q {}", map[string]any{"titleSlug": "two-sum"})
	if err != nil {
		t.Fatalf("GraphQL returned error: %v", err)
	}
	if !result.OK() {
		t.Fatalf("expected structural success, got %+v", result)
	}
	if string(result.Data) != `{"question":{"questionId":"1"}}` {
		t.Fatalf("unexpected data: %s", result.Data)
	}
}

func TestGraphQL_ErrorsFailOKCheck(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Cannot query field \"titleCn\""}],"data":null}`))
	}))

	result, err := client.GraphQL(context.Background(), nil, domain.DomainPrimary, "query q {}", nil)
	if err != nil {
		t.Fatalf("GraphQL returned error: %v", err)
	}
	if result.OK() {
		t.Fatalf("graphql-level errors must fail the OK check")
	}
	if result.ErrorMessage() == "" {
		t.Fatalf("expected an error message")
	}
}

func TestGraphQL_MalformedBodyFailsOKCheck(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>challenge page</html>"))
	}))

	result, err := client.GraphQL(context.Background(), nil, domain.DomainPrimary, "query q {}", nil)
	if err != nil {
		t.Fatalf("malformed body must not be an error: %v", err)
	}
	if result.OK() {
		t.Fatalf("undecodable envelope must fail the OK check")
	}
	if string(result.Raw) != "<html>challenge page</html>" {
		t.Fatalf("expected raw body to be preserved")
	}
}

func TestGraphQLWithFallback_ReturnsFirstSuccess(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var payload struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Query == "variant-a" {
			_, _ = w.Write([]byte(`{"errors":[{"message":"unknown field"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
	}))

	result, err := client.GraphQLWithFallback(context.Background(), nil, domain.DomainPrimary, []string{"variant-a", "variant-b"}, nil)
	if err != nil {
		t.Fatalf("GraphQLWithFallback returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both variants to be tried, got %d calls", calls)
	}
	if !result.OK() {
		t.Fatalf("expected the second variant to succeed")
	}
}

func TestGraphQLWithFallback_FirstSuccessShortCircuits(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
	}))

	if _, err := client.GraphQLWithFallback(context.Background(), nil, domain.DomainPrimary, []string{"a", "b"}, nil); err != nil {
		t.Fatalf("GraphQLWithFallback returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected short circuit after first success, got %d calls", calls)
	}
}

func TestGraphQLWithFallback_LastFailureIsAuthoritative(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`{"errors":[{"message":"first failure"}]}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"second failure"}]}`))
	}))

	result, err := client.GraphQLWithFallback(context.Background(), nil, domain.DomainPrimary, []string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("GraphQLWithFallback returned error: %v", err)
	}
	if result.OK() {
		t.Fatalf("expected failure result")
	}
	if result.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected the last attempt's status, got %d", result.StatusCode)
	}
	if result.ErrorMessage() != "second failure" {
		t.Fatalf("expected the last attempt's errors, got %q", result.ErrorMessage())
	}
}

func TestGraphQLWithFallback_NoVariants(t *testing.T) {
	client := NewClient(config.UpstreamSettings{}, nil)

	if _, err := client.GraphQLWithFallback(context.Background(), nil, domain.DomainPrimary, nil, nil); err == nil {
		t.Fatalf("expected an error for an empty variant list")
	}
}

func TestRequest_DomainOverride(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("primary"))
	}))
	t.Cleanup(primary.Close)
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secondary"))
	}))
	t.Cleanup(secondary.Close)

	client := NewClient(config.UpstreamSettings{
		PrimaryBaseURL:   primary.URL,
		SecondaryBaseURL: secondary.URL,
	}, nil)

	session := &domain.SessionRecord{Domain: domain.DomainPrimary}

	resp, err := client.Request(context.Background(), session, "/x", port.RequestOptions{Domain: domain.DomainSecondary})
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if string(resp.Body) != "secondary" {
		t.Fatalf("expected the override to win, got %s", resp.Body)
	}

	resp, err = client.Request(context.Background(), session, "/x", port.RequestOptions{})
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if string(resp.Body) != "primary" {
		t.Fatalf("expected the session domain, got %s", resp.Body)
	}
}
