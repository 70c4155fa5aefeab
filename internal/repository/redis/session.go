package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/core/port"
	"github.com/qwezhou/AAA-Code/internal/infra/security"
	"github.com/qwezhou/AAA-Code/internal/repository"
)

const (
	defaultSessionPrefix = "aaa:session"
	sessionIDBytes       = 32
)

// sessionRecord is the JSON representation persisted in Redis.
type sessionRecord struct {
	Domain         string              `json:"domain"`
	RawCookie      string              `json:"raw_cookie"`
	CSRFToken      string              `json:"csrf_token"`
	LangPreference string              `json:"lang_preference,omitempty"`
	User           *sessionUserProfile `json:"user,omitempty"`
}

type sessionUserProfile struct {
	ID              string `json:"id,omitempty"`
	ActiveSessionID string `json:"active_session_id,omitempty"`
	Username        string `json:"username,omitempty"`
	Slug            string `json:"slug,omitempty"`
	RealName        string `json:"real_name,omitempty"`
	Avatar          string `json:"avatar,omitempty"`
	IsSignedIn      bool   `json:"is_signed_in"`
	IsPremium       bool   `json:"is_premium"`
	IsVerified      *bool  `json:"is_verified,omitempty"`
}

// SessionStore persists session records in Redis. A zero TTL keeps records
// until explicit deletion, matching the in-memory backend's semantics.
type SessionStore struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewSessionStore constructs a Redis-backed session store.
func NewSessionStore(client *red.Client, keyPrefix string, ttl time.Duration) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}
	if ttl < 0 {
		ttl = 0
	}

	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

var _ port.SessionStore = (*SessionStore)(nil)

// Create mints an unguessable identifier and stores the encoded record.
func (s *SessionStore) Create(ctx context.Context, record domain.SessionRecord) (string, error) {
	id, err := security.GenerateSecureToken(sessionIDBytes)
	if err != nil {
		return "", fmt.Errorf("mint session id: %w", err)
	}

	if err := s.set(ctx, id, record); err != nil {
		return "", err
	}
	return id, nil
}

// Get fetches and decodes the record, returning repository.ErrNotFound on a miss.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	key := s.key(sessionID)
	if key == "" {
		return nil, repository.ErrNotFound
	}

	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var encoded sessionRecord
	if err := json.Unmarshal([]byte(value), &encoded); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}

	return decodeRecord(encoded), nil
}

// Update rewrites the record for an existing identifier.
func (s *SessionStore) Update(ctx context.Context, sessionID string, record domain.SessionRecord) error {
	key := s.key(sessionID)
	if key == "" {
		return repository.ErrNotFound
	}

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis exists session: %w", err)
	}
	if exists == 0 {
		return repository.ErrNotFound
	}

	return s.set(ctx, sessionID, record)
}

// Delete removes the record; unknown identifiers are a no-op.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	key := s.key(sessionID)
	if key == "" {
		return nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) set(ctx context.Context, sessionID string, record domain.SessionRecord) error {
	encoded, err := json.Marshal(encodeRecord(record))
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sessionID), encoded, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.prefix, trimmed)
}

func encodeRecord(record domain.SessionRecord) sessionRecord {
	encoded := sessionRecord{
		Domain:         string(record.Domain),
		RawCookie:      record.RawCookie,
		CSRFToken:      record.CSRFToken,
		LangPreference: record.LangPreference,
	}
	if record.User != nil {
		encoded.User = &sessionUserProfile{
			ID:              record.User.ID,
			ActiveSessionID: record.User.ActiveSessionID,
			Username:        record.User.Username,
			Slug:            record.User.Slug,
			RealName:        record.User.RealName,
			Avatar:          record.User.Avatar,
			IsSignedIn:      record.User.IsSignedIn,
			IsPremium:       record.User.IsPremium,
			IsVerified:      record.User.IsVerified,
		}
	}
	return encoded
}

func decodeRecord(encoded sessionRecord) *domain.SessionRecord {
	record := &domain.SessionRecord{
		Domain:         domain.Domain(encoded.Domain),
		RawCookie:      encoded.RawCookie,
		CSRFToken:      encoded.CSRFToken,
		LangPreference: encoded.LangPreference,
	}
	if encoded.User != nil {
		record.User = &domain.UserProfile{
			ID:              encoded.User.ID,
			ActiveSessionID: encoded.User.ActiveSessionID,
			Username:        encoded.User.Username,
			Slug:            encoded.User.Slug,
			RealName:        encoded.User.RealName,
			Avatar:          encoded.User.Avatar,
			IsSignedIn:      encoded.User.IsSignedIn,
			IsPremium:       encoded.User.IsPremium,
			IsVerified:      encoded.User.IsVerified,
		}
	}
	return record
}
