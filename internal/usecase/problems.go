package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/core/port"
	"github.com/qwezhou/AAA-Code/internal/upstream"
)

const defaultListLimit = 2000

// ListInput carries the catalog request parameters.
type ListInput struct {
	Search        string
	Category      string
	WantLocalized bool
	Limit         int
	Skip          int
}

// ProblemService aggregates the problem catalog across query shapes, the
// legacy REST endpoint and the secondary domain's public catalog.
type ProblemService struct {
	gateway port.Gateway
	logger  *zap.Logger
}

// NewProblemService constructs a ProblemService.
func NewProblemService(gateway port.Gateway, log *zap.Logger) *ProblemService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProblemService{gateway: gateway, logger: log}
}

// List fetches the problem catalog. When localization is requested the
// GraphQL catalog is preferred (it carries translated titles) with the legacy
// REST endpoint as fallback; otherwise REST is queried directly since it has
// everything except localized titles. Missing localized titles are
// back-filled from the secondary domain for primary-domain sessions.
func (s *ProblemService) List(ctx context.Context, session *domain.SessionRecord, input ListInput) ([]domain.ProblemListItem, error) {
	if input.Limit <= 0 {
		input.Limit = defaultListLimit
	}

	var items []domain.ProblemListItem

	if input.WantLocalized {
		graphqlItems, err := s.listGraphQL(ctx, session, sessionDomain(session), input)
		if err != nil {
			s.logger.Debug("graphql catalog unavailable, using REST fallback", zap.Error(err))
		}
		items = graphqlItems
	}

	if len(items) == 0 {
		restItems, err := s.listREST(ctx, session, input)
		if err != nil {
			return nil, err
		}
		items = restItems
	}

	if input.WantLocalized && sessionDomain(session).IsPrimary() {
		s.fillLocalizedTitles(ctx, items, input)
	}

	return items, nil
}

type listQuestionWire struct {
	QuestionID      string   `json:"questionId"`
	FrontendID      string   `json:"questionFrontendId"`
	Title           string   `json:"title"`
	TranslatedTitle *string  `json:"translatedTitle"`
	TitleSlug       string   `json:"titleSlug"`
	IsPaidOnly      bool     `json:"isPaidOnly"`
	Difficulty      string   `json:"difficulty"`
	Status          *string  `json:"status"`
	AcRate          *float64 `json:"acRate"`
}

func (s *ProblemService) listGraphQL(ctx context.Context, session *domain.SessionRecord, target domain.Domain, input ListInput) ([]domain.ProblemListItem, error) {
	result, err := s.gateway.GraphQLWithFallback(ctx, session, target, upstream.ProblemListQueries, listVariables(input))
	if err != nil {
		return nil, err
	}
	if !result.OK() {
		return nil, &domain.UpstreamError{
			Operation:  "problem list",
			StatusCode: result.StatusCode,
			Body:       string(result.Raw),
		}
	}

	var envelope struct {
		ProblemsetQuestionList *struct {
			Questions []listQuestionWire `json:"questions"`
		} `json:"problemsetQuestionList"`
	}
	if err := json.Unmarshal(result.Data, &envelope); err != nil {
		return nil, fmt.Errorf("decode problem list: %w", err)
	}
	if envelope.ProblemsetQuestionList == nil {
		return nil, nil
	}

	items := make([]domain.ProblemListItem, 0, len(envelope.ProblemsetQuestionList.Questions))
	for _, q := range envelope.ProblemsetQuestionList.Questions {
		item := domain.ProblemListItem{
			ID:             q.QuestionID,
			FrontendID:     q.FrontendID,
			Title:          q.Title,
			Slug:           q.TitleSlug,
			PaidOnly:       q.IsPaidOnly,
			Difficulty:     domain.ParseDifficulty(q.Difficulty),
			AcceptanceRate: q.AcRate,
		}
		if q.TranslatedTitle != nil {
			item.LocalizedTitle = *q.TranslatedTitle
		}
		if q.Status != nil {
			item.Status = *q.Status
		}
		items = append(items, item)
	}

	return items, nil
}

type restProblemWire struct {
	Stat struct {
		QuestionID     json.Number `json:"question_id"`
		FrontendID     json.Number `json:"frontend_question_id"`
		Title          string      `json:"question__title"`
		TitleSlug      string      `json:"question__title_slug"`
		TotalAccepted  int64       `json:"total_acs"`
		TotalSubmitted int64       `json:"total_submitted"`
	} `json:"stat"`
	Difficulty struct {
		Level int `json:"level"`
	} `json:"difficulty"`
	PaidOnly bool    `json:"paid_only"`
	Status   *string `json:"status"`
}

// listREST queries the legacy catalog endpoint. It never carries localized
// titles, and filtering happens client-side by substring match.
func (s *ProblemService) listREST(ctx context.Context, session *domain.SessionRecord, input ListInput) ([]domain.ProblemListItem, error) {
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "all"
	}

	resp, err := s.gateway.Request(ctx, session, "/api/problems/"+category+"/", port.RequestOptions{
		Method: http.MethodGet,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &domain.UpstreamError{
			Operation:  "problem list",
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		}
	}

	var envelope struct {
		StatStatusPairs []restProblemWire `json:"stat_status_pairs"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decode legacy problem list: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(input.Search))
	items := make([]domain.ProblemListItem, 0, len(envelope.StatStatusPairs))
	for _, p := range envelope.StatStatusPairs {
		item := domain.ProblemListItem{
			ID:             p.Stat.QuestionID.String(),
			FrontendID:     p.Stat.FrontendID.String(),
			Title:          p.Stat.Title,
			Slug:           p.Stat.TitleSlug,
			PaidOnly:       p.PaidOnly,
			Difficulty:     domain.DifficultyFromLevel(p.Difficulty.Level),
			AcceptanceRate: acceptanceRate(p.Stat.TotalAccepted, p.Stat.TotalSubmitted),
		}
		if p.Status != nil {
			item.Status = *p.Status
		}
		if needle != "" && !matchesSearch(item, needle) {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// fillLocalizedTitles issues one unauthenticated catalog query against the
// secondary domain and fills in missing localized titles by slug. Titles
// already present are never overwritten, which keeps the fill-in idempotent.
func (s *ProblemService) fillLocalizedTitles(ctx context.Context, items []domain.ProblemListItem, input ListInput) {
	missing := 0
	for i := range items {
		if items[i].LocalizedTitle == "" {
			missing++
		}
	}
	if missing == 0 {
		return
	}

	secondary, err := s.listGraphQL(ctx, nil, domain.DomainSecondary, input)
	if err != nil {
		s.logger.Debug("secondary catalog enrichment failed", zap.Error(err))
		return
	}

	localized := make(map[string]string, len(secondary))
	for _, item := range secondary {
		if item.LocalizedTitle != "" {
			localized[item.Slug] = item.LocalizedTitle
		}
	}

	for i := range items {
		if items[i].LocalizedTitle != "" {
			continue
		}
		if title, ok := localized[items[i].Slug]; ok {
			items[i].LocalizedTitle = title
		}
	}
}

func listVariables(input ListInput) map[string]any {
	filters := map[string]any{}
	if search := strings.TrimSpace(input.Search); search != "" {
		filters["searchKeywords"] = search
	}

	categorySlug := strings.TrimSpace(input.Category)
	if categorySlug == "all" {
		categorySlug = ""
	}

	return map[string]any{
		"categorySlug": categorySlug,
		"skip":         input.Skip,
		"limit":        input.Limit,
		"filters":      filters,
	}
}

// acceptanceRate computes 100*accepted/submitted, or nil when the submitted
// count is zero or absent. Never zero, never NaN.
func acceptanceRate(accepted, submitted int64) *float64 {
	if submitted <= 0 {
		return nil
	}
	rate := 100 * float64(accepted) / float64(submitted)
	return &rate
}

func matchesSearch(item domain.ProblemListItem, needle string) bool {
	return strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.Slug), needle) ||
		strings.Contains(strings.ToLower(item.FrontendID), needle)
}

func sessionDomain(session *domain.SessionRecord) domain.Domain {
	if session == nil || session.Domain == "" {
		return domain.DomainPrimary
	}
	return session.Domain
}
