package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/transport/http/middleware"
	"github.com/qwezhou/AAA-Code/internal/usecase"
)

// SessionCookieSettings controls the browser cookie carrying the opaque
// session identifier.
type SessionCookieSettings struct {
	Name   string
	Secure bool
}

// AuthHandler exposes the cookie sign-in, profile refresh and logout endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	cookie SessionCookieSettings
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cookie SessionCookieSettings) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "aaa_session"
	}
	return &AuthHandler{auth: auth, cookie: cookie}
}

// RegisterRoutes binds authentication routes, applying optional middleware
// ahead of the sign-in handler.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, signInMiddlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, signInMiddlewares...)
	chain = append(chain, h.signInWithCookie)
	r.POST("/cookie", chain...)

	r.GET("/me", h.me)
	r.POST("/logout", h.logout)
}

func (h *AuthHandler) signInWithCookie(c *gin.Context) {
	var req CookieSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "COOKIE_INVALID", "invalid sign-in payload"))
		return
	}

	if strings.TrimSpace(req.Cookie) == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "COOKIE_INVALID", "cookie is required"))
		return
	}

	target, err := domain.ParseDomain(req.Domain)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "COOKIE_INVALID", err.Error()))
		return
	}

	result, err := h.auth.SignInWithCookie(c.Request.Context(), usecase.SignInInput{
		RawCookie:         req.Cookie,
		Domain:            target,
		LangPreference:    req.Lang,
		PreviousSessionID: middleware.SessionID(c),
	})
	if err != nil {
		h.respondSignInError(c, err)
		return
	}

	h.setSessionCookie(c, result.SessionID)

	c.JSON(http.StatusOK, SignInResponse{
		User:             newUserPayload(result.User),
		EmailNotVerified: result.EmailNotVerified,
	})
}

func (h *AuthHandler) me(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "SESSION_EXPIRED", "authentication required"))
		return
	}

	profile, err := h.auth.CurrentUser(c.Request.Context(), sessionID)
	if err != nil {
		h.clearSessionCookie(c)
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "SESSION_EXPIRED", "session expired, sign in again"))
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: newUserPayload(*profile)})
}

// logout always succeeds, even for unknown or missing sessions.
func (h *AuthHandler) logout(c *gin.Context) {
	_ = h.auth.Logout(c.Request.Context(), middleware.SessionID(c))
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, LogoutResponse{OK: true})
}

func (h *AuthHandler) respondSignInError(c *gin.Context, err error) {
	var notSignedIn *usecase.NotSignedInError
	if errors.As(err, &notSignedIn) {
		// The partial profile still ships so the client can show what the
		// upstream reported about the rejected cookie.
		payload := gin.H{
			"error": "cookie is not signed in on this domain",
			"code":  "NOT_SIGNED_IN",
		}
		if notSignedIn.User != nil {
			payload["user"] = newUserPayload(*notSignedIn.User)
		}
		c.JSON(http.StatusUnauthorized, payload)
		return
	}

	RespondWithMappedError(c, err, []ErrorCase{
		{Err: usecase.ErrCookieInvalid, Status: http.StatusBadRequest, Code: "COOKIE_INVALID", Message: "cookie is missing csrftoken or session token"},
		{Err: usecase.ErrAuthFailed, Status: http.StatusUnauthorized, Code: "AUTH_FAILED", Message: "upstream rejected the cookie"},
	}, http.StatusInternalServerError, "sign-in failed")
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, sessionID, 0, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}
