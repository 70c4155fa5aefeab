package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/core/port"
	"github.com/qwezhou/AAA-Code/internal/repository"
)

const (
	sessionIDKey     = "session_id"
	sessionRecordKey = "session_record"
)

// SessionFromCookie resolves the opaque session cookie into a session record
// and stashes it on the request context. A missing or unknown identifier is
// indistinguishable from "never authenticated": the request proceeds without
// a session.
func SessionFromCookie(sessions port.SessionStore, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(cookieName)
		if err != nil || sessionID == "" {
			c.Next()
			return
		}

		record, err := sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				c.Error(err) //nolint:errcheck
			}
			c.Next()
			return
		}

		c.Set(sessionIDKey, sessionID)
		c.Set(sessionRecordKey, record)

		c.Next()
	}
}

// RequireSession aborts with 401 when no session record was resolved.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if SessionRecord(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
				"code":  "SESSION_EXPIRED",
			})
			return
		}
		c.Next()
	}
}

// SessionID returns the resolved session identifier, or empty.
func SessionID(c *gin.Context) string {
	if id, ok := c.Get(sessionIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// SessionRecord returns the resolved session record, or nil.
func SessionRecord(c *gin.Context) *domain.SessionRecord {
	if record, ok := c.Get(sessionRecordKey); ok {
		if r, ok := record.(*domain.SessionRecord); ok {
			return r
		}
	}
	return nil
}
