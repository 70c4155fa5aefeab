package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
)

// ErrorResponse represents a generic error payload with a machine readable
// code and trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, code, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		Code:    code,
		TraceID: traceIDStr,
	}
}

// UserPayload is the normalized profile view returned by the API. Primary and
// secondary domain accounts populate different optional fields.
type UserPayload struct {
	ID              string `json:"id,omitempty"`
	ActiveSessionID string `json:"sessionId,omitempty"`
	Username        string `json:"username,omitempty"`
	Slug            string `json:"slug,omitempty"`
	RealName        string `json:"realName,omitempty"`
	Avatar          string `json:"avatar,omitempty"`
	IsSignedIn      bool   `json:"isSignedIn"`
	IsPremium       bool   `json:"isPremium"`
	IsVerified      *bool  `json:"isVerified"`
}

// CookieSignInRequest is the payload for pasting a browser cookie. Lang is an
// optional localization preference forwarded to the upstream on every call.
type CookieSignInRequest struct {
	Cookie string `json:"cookie"`
	Domain string `json:"domain"`
	Lang   string `json:"lang"`
}

// SignInResponse is returned after a validated cookie exchange.
type SignInResponse struct {
	User             UserPayload `json:"user"`
	EmailNotVerified bool        `json:"emailNotVerified,omitempty"`
}

// MeResponse wraps the refreshed profile.
type MeResponse struct {
	User UserPayload `json:"user"`
}

// LogoutResponse always reports success.
type LogoutResponse struct {
	OK bool `json:"ok"`
}

// ProblemItemPayload is one catalog row.
type ProblemItemPayload struct {
	ID             string   `json:"id"`
	FrontendID     string   `json:"frontendId"`
	Title          string   `json:"title"`
	LocalizedTitle string   `json:"localizedTitle,omitempty"`
	Slug           string   `json:"slug"`
	PaidOnly       bool     `json:"paidOnly"`
	Difficulty     string   `json:"difficulty"`
	Status         string   `json:"status,omitempty"`
	AcceptanceRate *float64 `json:"acceptanceRate"`
}

// ProblemListResponse wraps the catalog rows.
type ProblemListResponse struct {
	Items []ProblemItemPayload `json:"items"`
}

// TopicTagPayload labels a problem.
type TopicTagPayload struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CodeSnippetPayload is a starter template for one language.
type CodeSnippetPayload struct {
	Language     string `json:"lang"`
	LanguageSlug string `json:"langSlug"`
	Code         string `json:"code"`
}

// ProblemDetailPayload is the full problem content.
type ProblemDetailPayload struct {
	ID               string               `json:"id"`
	FrontendID       string               `json:"frontendId"`
	Title            string               `json:"title"`
	LocalizedTitle   string               `json:"localizedTitle,omitempty"`
	Slug             string               `json:"slug"`
	PaidOnly         bool                 `json:"paidOnly"`
	Difficulty       string               `json:"difficulty"`
	Likes            int                  `json:"likes"`
	Dislikes         int                  `json:"dislikes"`
	Content          string               `json:"content"`
	LocalizedContent string               `json:"localizedContent,omitempty"`
	Testcases        []string             `json:"testcases"`
	TopicTags        []TopicTagPayload    `json:"topicTags"`
	CodeSnippets     []CodeSnippetPayload `json:"codeSnippets"`
}

// ProblemDetailResponse wraps a single question.
type ProblemDetailResponse struct {
	Question ProblemDetailPayload `json:"question"`
}

// SubmitRequest is one code submission.
type SubmitRequest struct {
	Slug       string `json:"slug" binding:"required"`
	Lang       string `json:"lang" binding:"required"`
	Code       string `json:"code" binding:"required"`
	QuestionID string `json:"questionId"`
}

// SubmitResponse returns the upstream submission identifier.
type SubmitResponse struct {
	SubmissionID string `json:"submissionId"`
}

// CheckStatusResponse wraps the raw upstream judge snapshot.
type CheckStatusResponse struct {
	Submission domain.StatusSnapshot `json:"submission"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newUserPayload(user domain.UserProfile) UserPayload {
	return UserPayload{
		ID:              user.ID,
		ActiveSessionID: user.ActiveSessionID,
		Username:        user.Username,
		Slug:            user.Slug,
		RealName:        user.RealName,
		Avatar:          user.Avatar,
		IsSignedIn:      user.IsSignedIn,
		IsPremium:       user.IsPremium,
		IsVerified:      user.IsVerified,
	}
}

func newProblemItemPayload(item domain.ProblemListItem) ProblemItemPayload {
	return ProblemItemPayload{
		ID:             item.ID,
		FrontendID:     item.FrontendID,
		Title:          item.Title,
		LocalizedTitle: item.LocalizedTitle,
		Slug:           item.Slug,
		PaidOnly:       item.PaidOnly,
		Difficulty:     string(item.Difficulty),
		Status:         item.Status,
		AcceptanceRate: item.AcceptanceRate,
	}
}

func newProblemDetailPayload(detail domain.ProblemDetail) ProblemDetailPayload {
	payload := ProblemDetailPayload{
		ID:               detail.ID,
		FrontendID:       detail.FrontendID,
		Title:            detail.Title,
		LocalizedTitle:   detail.LocalizedTitle,
		Slug:             detail.Slug,
		PaidOnly:         detail.PaidOnly,
		Difficulty:       string(detail.Difficulty),
		Likes:            detail.Likes,
		Dislikes:         detail.Dislikes,
		Content:          detail.Content,
		LocalizedContent: detail.LocalizedContent,
		Testcases:        detail.Testcases,
	}
	for _, tag := range detail.TopicTags {
		payload.TopicTags = append(payload.TopicTags, TopicTagPayload{Name: tag.Name, Slug: tag.Slug})
	}
	for _, snippet := range detail.CodeSnippets {
		payload.CodeSnippets = append(payload.CodeSnippets, CodeSnippetPayload{
			Language:     snippet.Language,
			LanguageSlug: snippet.LanguageSlug,
			Code:         snippet.Code,
		})
	}
	return payload
}
