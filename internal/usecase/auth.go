package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/core/port"
	"github.com/qwezhou/AAA-Code/internal/infra/logger"
	"github.com/qwezhou/AAA-Code/internal/upstream"
)

var (
	// ErrCookieInvalid indicates the pasted cookie lacks a required token.
	// No upstream call is attempted in this case.
	ErrCookieInvalid = errors.New("cookie is missing required tokens")
	// ErrAuthFailed indicates the upstream user-status query failed outright.
	ErrAuthFailed = errors.New("upstream authentication failed")
	// ErrNotSignedIn indicates the cookie was syntactically valid but the
	// upstream rejected it or it belongs to the wrong domain.
	ErrNotSignedIn = errors.New("upstream reports signed out")
	// ErrSessionExpired indicates re-validation failed and the session was discarded.
	ErrSessionExpired = errors.New("session expired")
)

// NotSignedInError carries the partial profile so callers can still show
// diagnostics for a rejected cookie.
type NotSignedInError struct {
	User *domain.UserProfile
}

func (e *NotSignedInError) Error() string { return ErrNotSignedIn.Error() }

func (e *NotSignedInError) Unwrap() error { return ErrNotSignedIn }

var (
	csrfTokenPattern    = regexp.MustCompile(`csrftoken=([^;\s]+)`)
	sessionTokenPattern = regexp.MustCompile(`LEETCODE_SESSION=([^;\s]+)`)
)

// SignInInput carries one cookie sign-in attempt.
type SignInInput struct {
	RawCookie string
	Domain    domain.Domain
	// LangPreference, when set, is forwarded to the upstream on every call
	// made with the resulting session.
	LangPreference string
	// PreviousSessionID is the session this browser already holds, if any;
	// it is discarded on success so one browser keeps one session.
	PreviousSessionID string
}

// SignInResult is returned after a cookie has been validated upstream.
type SignInResult struct {
	SessionID string
	User      domain.UserProfile
	// EmailNotVerified is true only when the upstream definitely reported an
	// unverified email, never when verification status is unknown.
	EmailNotVerified bool
}

// AuthService translates pasted browser cookies into durable server-side
// sessions and keeps the cached profile fresh.
type AuthService struct {
	gateway  port.Gateway
	sessions port.SessionStore
	logger   *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(gateway port.Gateway, sessions port.SessionStore, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		gateway:  gateway,
		sessions: sessions,
		logger:   log,
	}
}

// SignInWithCookie validates a pasted cookie against the chosen domain,
// persists a session record on success and discards any prior session held by
// this browser exchange.
func (s *AuthService) SignInWithCookie(ctx context.Context, input SignInInput) (*SignInResult, error) {
	rawCookie := strings.TrimSpace(input.RawCookie)

	csrfToken, ok := extractCookieValue(csrfTokenPattern, rawCookie)
	if !ok {
		return nil, fmt.Errorf("%w: csrftoken", ErrCookieInvalid)
	}
	if _, ok := extractCookieValue(sessionTokenPattern, rawCookie); !ok {
		return nil, fmt.Errorf("%w: LEETCODE_SESSION", ErrCookieInvalid)
	}

	record := domain.SessionRecord{
		Domain:         input.Domain,
		RawCookie:      rawCookie,
		CSRFToken:      csrfToken,
		LangPreference: strings.TrimSpace(input.LangPreference),
	}

	profile, err := s.fetchUserStatus(ctx, &record)
	if err != nil {
		s.logger.Info("cookie sign-in rejected upstream",
			zap.String("domain", string(input.Domain)),
			zap.String("cookie", logger.MaskCookie(rawCookie)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	if !profile.IsSignedIn {
		return nil, &NotSignedInError{User: profile}
	}

	record.User = profile

	if input.PreviousSessionID != "" {
		_ = s.sessions.Delete(ctx, input.PreviousSessionID)
	}

	sessionID, err := s.sessions.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.logger.Info("cookie sign-in succeeded",
		zap.String("domain", string(input.Domain)),
		zap.String("username", profile.Username),
	)

	return &SignInResult{
		SessionID:        sessionID,
		User:             *profile,
		EmailNotVerified: profile.EmailNotVerified(),
	}, nil
}

// CurrentUser re-validates the session against the upstream. Any failure is
// treated as session expiry: a previously valid cookie may have been
// invalidated upstream, so the session is deleted and the caller must
// authenticate again.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) (*domain.UserProfile, error) {
	record, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionExpired
	}

	profile, err := s.fetchUserStatus(ctx, record)
	if err != nil || !profile.IsSignedIn {
		_ = s.sessions.Delete(ctx, sessionID)
		if err != nil {
			s.logger.Debug("session re-validation failed", zap.Error(err))
		}
		return nil, ErrSessionExpired
	}

	record.User = profile
	if err := s.sessions.Update(ctx, sessionID, *record); err != nil {
		return nil, ErrSessionExpired
	}

	return profile, nil
}

// Logout destroys the session. Unknown identifiers succeed silently.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// Session resolves a session record by identifier.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	return s.sessions.Get(ctx, sessionID)
}

func (s *AuthService) fetchUserStatus(ctx context.Context, record *domain.SessionRecord) (*domain.UserProfile, error) {
	query := upstream.UserStatusQuery(record.Domain)

	result, err := s.gateway.GraphQL(ctx, record, record.Domain, query, nil)
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, &domain.UpstreamError{
			Operation:  "user status",
			StatusCode: result.StatusCode,
			Body:       string(result.Raw),
		}
	}

	return normalizeUserStatus(result.Data)
}

type userStatusWire struct {
	UserID          *json.Number `json:"userId"`
	Username        string       `json:"username"`
	RealName        string       `json:"realName"`
	UserSlug        string       `json:"userSlug"`
	Avatar          string       `json:"avatar"`
	IsSignedIn      bool         `json:"isSignedIn"`
	IsPremium       bool         `json:"isPremium"`
	IsVerified      *bool        `json:"isVerified"`
	ActiveSessionID *json.Number `json:"activeSessionId"`
}

// normalizeUserStatus folds the per-domain result shapes into one profile.
// IsVerified stays nil when the upstream omits it; unknown is not false.
func normalizeUserStatus(data json.RawMessage) (*domain.UserProfile, error) {
	var envelope struct {
		UserStatus *userStatusWire `json:"userStatus"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode user status: %w", err)
	}
	if envelope.UserStatus == nil {
		return nil, fmt.Errorf("user status missing from response")
	}

	wire := envelope.UserStatus
	profile := &domain.UserProfile{
		Username:   wire.Username,
		RealName:   wire.RealName,
		Slug:       wire.UserSlug,
		Avatar:     wire.Avatar,
		IsSignedIn: wire.IsSignedIn,
		IsPremium:  wire.IsPremium,
		IsVerified: wire.IsVerified,
	}
	if wire.UserID != nil {
		profile.ID = wire.UserID.String()
	}
	if wire.ActiveSessionID != nil {
		profile.ActiveSessionID = wire.ActiveSessionID.String()
	}

	return profile, nil
}

func extractCookieValue(pattern *regexp.Regexp, raw string) (string, bool) {
	matches := pattern.FindStringSubmatch(raw)
	if len(matches) != 2 || matches[1] == "" {
		return "", false
	}
	return matches[1], true
}
