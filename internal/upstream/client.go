package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/core/port"
	"github.com/qwezhou/AAA-Code/internal/infra/config"
)

const (
	csrfHeader = "x-csrftoken"
	langHeader = "x-lang"
)

// Client issues authenticated HTTP requests to the judging platform,
// attaching the session's cookie, CSRF token and localization preference.
// It implements port.Gateway.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	baseURLs   map[domain.Domain]string
}

// NewClient constructs the upstream gateway from configuration. Empty base
// URLs fall back to the domain's canonical origin.
func NewClient(cfg config.UpstreamSettings, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURLs := make(map[domain.Domain]string, 2)
	if base := strings.TrimRight(strings.TrimSpace(cfg.PrimaryBaseURL), "/"); base != "" {
		baseURLs[domain.DomainPrimary] = base
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.SecondaryBaseURL), "/"); base != "" {
		baseURLs[domain.DomainSecondary] = base
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		baseURLs:   baseURLs,
	}
}

var _ port.Gateway = (*Client)(nil)

// Request performs one upstream exchange. Non-2xx responses are returned as
// data so callers can inspect the platform's structured error payloads; only
// network level failures become errors.
func (c *Client) Request(ctx context.Context, session *domain.SessionRecord, path string, opts port.RequestOptions) (*domain.UpstreamResponse, error) {
	target := c.resolveDomain(session, opts.Domain)
	base := c.baseURL(target)

	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = base + path
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	for name, value := range opts.Header {
		req.Header.Set(name, value)
	}
	if req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", base+"/")
	}
	if req.Header.Get("Origin") == "" {
		req.Header.Set("Origin", base)
	}
	if len(opts.Body) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if session != nil {
		req.Header.Set("Cookie", session.RawCookie)
		if session.CSRFToken != "" {
			req.Header.Set(csrfHeader, session.CSRFToken)
		}
		if session.LangPreference != "" && req.Header.Get(langHeader) == "" {
			req.Header.Set(langHeader, session.LangPreference)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnreachable, err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Debug("upstream returned error status",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
	}

	return &domain.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Body:       raw,
	}, nil
}

// GraphQL posts one query to the domain's /graphql endpoint and decodes the
// envelope. A malformed body yields a result that fails the OK check rather
// than an error.
func (c *Client) GraphQL(ctx context.Context, session *domain.SessionRecord, target domain.Domain, query string, variables map[string]any) (*domain.GraphQLResult, error) {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql payload: %w", err)
	}

	resp, err := c.Request(ctx, session, "/graphql", port.RequestOptions{
		Method: http.MethodPost,
		Domain: target,
		Body:   payload,
		Header: map[string]string{"Content-Type": "application/json"},
	})
	if err != nil {
		return nil, err
	}

	result := &domain.GraphQLResult{
		StatusCode: resp.StatusCode,
		Raw:        resp.Body,
	}

	var envelope struct {
		Data   json.RawMessage       `json:"data"`
		Errors []domain.GraphQLError `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err == nil {
		result.Data = envelope.Data
		result.Errors = envelope.Errors
	}

	return result, nil
}

// GraphQLWithFallback tries each query variant in order with identical
// variables, returning the first structural success. When every variant
// fails, the most recent attempt is authoritative for diagnostics.
func (c *Client) GraphQLWithFallback(ctx context.Context, session *domain.SessionRecord, target domain.Domain, queries []string, variables map[string]any) (*domain.GraphQLResult, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("no query variants supplied")
	}

	var (
		lastResult *domain.GraphQLResult
		lastErr    error
	)

	for i, query := range queries {
		result, err := c.GraphQL(ctx, session, target, query, variables)
		if err != nil {
			lastResult, lastErr = nil, err
			continue
		}
		if result.OK() {
			return result, nil
		}
		if i+1 < len(queries) {
			c.logger.Debug("graphql variant rejected, trying next shape",
				zap.Int("variant", i),
				zap.Int("status", result.StatusCode),
				zap.String("errors", result.ErrorMessage()),
			)
		}
		lastResult, lastErr = result, nil
	}

	return lastResult, lastErr
}

func (c *Client) resolveDomain(session *domain.SessionRecord, override domain.Domain) domain.Domain {
	if override != "" {
		return override
	}
	if session != nil && session.Domain != "" {
		return session.Domain
	}
	return domain.DomainPrimary
}

func (c *Client) baseURL(target domain.Domain) string {
	if base, ok := c.baseURLs[target]; ok {
		return base
	}
	return target.BaseURL()
}
