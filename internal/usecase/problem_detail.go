package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/upstream"
)

// ErrProblemNotFound indicates the upstream query succeeded but returned no question.
var ErrProblemNotFound = errors.New("problem not found")

type detailQuestionWire struct {
	QuestionID        string   `json:"questionId"`
	FrontendID        string   `json:"questionFrontendId"`
	Title             string   `json:"title"`
	TranslatedTitle   *string  `json:"translatedTitle"`
	TitleSlug         string   `json:"titleSlug"`
	IsPaidOnly        bool     `json:"isPaidOnly"`
	Difficulty        string   `json:"difficulty"`
	Likes             int      `json:"likes"`
	Dislikes          int      `json:"dislikes"`
	Content           *string  `json:"content"`
	TranslatedContent *string  `json:"translatedContent"`
	ExampleTestcases  []string `json:"exampleTestcaseList"`
	TopicTags         []struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"topicTags"`
	CodeSnippets []struct {
		Lang     string `json:"lang"`
		LangSlug string `json:"langSlug"`
		Code     string `json:"code"`
	} `json:"codeSnippets"`
}

// Detail fetches one problem's full content. For primary-domain sessions with
// no localized title or content, one unauthenticated lookup against the
// secondary domain back-fills only the missing localized fields.
func (s *ProblemService) Detail(ctx context.Context, session *domain.SessionRecord, slug string) (*domain.ProblemDetail, error) {
	detail, err := s.fetchDetail(ctx, session, sessionDomain(session), slug)
	if err != nil {
		return nil, err
	}

	if sessionDomain(session).IsPrimary() && detail.LocalizedTitle == "" && detail.LocalizedContent == "" {
		s.fillLocalizedDetail(ctx, detail, slug)
	}

	return detail, nil
}

func (s *ProblemService) fetchDetail(ctx context.Context, session *domain.SessionRecord, target domain.Domain, slug string) (*domain.ProblemDetail, error) {
	result, err := s.gateway.GraphQLWithFallback(ctx, session, target, upstream.ProblemDetailQueries, map[string]any{
		"titleSlug": slug,
	})
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, &domain.UpstreamError{
			Operation:  "problem detail",
			StatusCode: result.StatusCode,
			Body:       string(result.Raw),
		}
	}

	var envelope struct {
		Question *detailQuestionWire `json:"question"`
	}
	if err := json.Unmarshal(result.Data, &envelope); err != nil {
		return nil, fmt.Errorf("decode problem detail: %w", err)
	}
	if envelope.Question == nil {
		return nil, ErrProblemNotFound
	}

	q := envelope.Question
	detail := &domain.ProblemDetail{
		ID:         q.QuestionID,
		FrontendID: q.FrontendID,
		Title:      q.Title,
		Slug:       q.TitleSlug,
		PaidOnly:   q.IsPaidOnly,
		Difficulty: domain.ParseDifficulty(q.Difficulty),
		Likes:      q.Likes,
		Dislikes:   q.Dislikes,
		Testcases:  q.ExampleTestcases,
	}
	if q.TranslatedTitle != nil {
		detail.LocalizedTitle = *q.TranslatedTitle
	}
	if q.Content != nil {
		detail.Content = *q.Content
	}
	if q.TranslatedContent != nil {
		detail.LocalizedContent = *q.TranslatedContent
	}
	for _, tag := range q.TopicTags {
		detail.TopicTags = append(detail.TopicTags, domain.TopicTag{Name: tag.Name, Slug: tag.Slug})
	}
	for _, snippet := range q.CodeSnippets {
		detail.CodeSnippets = append(detail.CodeSnippets, domain.CodeSnippet{
			Language:     snippet.Lang,
			LanguageSlug: snippet.LangSlug,
			Code:         snippet.Code,
		})
	}

	return detail, nil
}

// fillLocalizedDetail consults the secondary domain anonymously, filling only
// the missing localized fields. The secondary's localized content is
// preferred; its plain content is the fallback. Populated fields are never
// overwritten.
func (s *ProblemService) fillLocalizedDetail(ctx context.Context, detail *domain.ProblemDetail, slug string) {
	secondary, err := s.fetchDetail(ctx, nil, domain.DomainSecondary, slug)
	if err != nil {
		s.logger.Debug("secondary detail enrichment failed",
			zap.String("slug", slug),
			zap.Error(err),
		)
		return
	}

	if detail.LocalizedTitle == "" {
		detail.LocalizedTitle = secondary.LocalizedTitle
	}
	if detail.LocalizedContent == "" {
		if secondary.LocalizedContent != "" {
			detail.LocalizedContent = secondary.LocalizedContent
		} else {
			detail.LocalizedContent = secondary.Content
		}
	}
}
