package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/repository"
)

type fakeSessionStore struct {
	records map[string]domain.SessionRecord
	getErr  error
}

func (s *fakeSessionStore) Create(context.Context, domain.SessionRecord) (string, error) {
	return "", errors.New("unexpected call")
}

func (s *fakeSessionStore) Get(_ context.Context, sessionID string) (*domain.SessionRecord, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if record, ok := s.records[sessionID]; ok {
		copy := record
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (s *fakeSessionStore) Update(context.Context, string, domain.SessionRecord) error {
	return errors.New("unexpected call")
}

func (s *fakeSessionStore) Delete(context.Context, string) error {
	return errors.New("unexpected call")
}

func sessionRouter(store *fakeSessionStore, protected bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(SessionFromCookie(store, "aaa_session"))

	handler := func(c *gin.Context) {
		record := SessionRecord(c)
		if record == nil {
			c.JSON(http.StatusOK, gin.H{"session": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": true, "id": SessionID(c)})
	}

	if protected {
		r.GET("/x", RequireSession(), handler)
	} else {
		r.GET("/x", handler)
	}

	return r
}

func TestSessionFromCookie_ResolvesRecord(t *testing.T) {
	store := &fakeSessionStore{records: map[string]domain.SessionRecord{
		"sid-1": {Domain: domain.DomainPrimary, CSRFToken: "abc"},
	}}
	r := sessionRouter(store, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "aaa_session", Value: "sid-1"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"id":"sid-1","session":true}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestSessionFromCookie_UnknownIDProceedsAnonymously(t *testing.T) {
	store := &fakeSessionStore{records: map[string]domain.SessionRecord{}}
	r := sessionRouter(store, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "aaa_session", Value: "ghost"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected anonymous pass-through, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"session":false}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRequireSession_RejectsAnonymous(t *testing.T) {
	store := &fakeSessionStore{records: map[string]domain.SessionRecord{}}
	r := sessionRouter(store, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"code":"SESSION_EXPIRED","error":"authentication required"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRequireSession_AllowsResolved(t *testing.T) {
	store := &fakeSessionStore{records: map[string]domain.SessionRecord{
		"sid-1": {Domain: domain.DomainPrimary},
	}}
	r := sessionRouter(store, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "aaa_session", Value: "sid-1"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
