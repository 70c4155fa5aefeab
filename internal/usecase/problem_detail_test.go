package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
)

const primaryDetailBody = `{"question":{
	"questionId":"1","questionFrontendId":"1","title":"Two Sum","titleSlug":"two-sum",
	"isPaidOnly":false,"difficulty":"Easy","likes":10,"dislikes":2,
	"content":"<p>Given an array...</p>","exampleTestcaseList":["[2,7,11,15]\n9"],
	"topicTags":[{"name":"Array","slug":"array"}],
	"codeSnippets":[{"lang":"Go","langSlug":"golang","code":"func twoSum() {}"}]
}}`

const secondaryDetailBody = `{"question":{
	"questionId":"1","questionFrontendId":"1","title":"Two Sum","translatedTitle":"两数之和",
	"titleSlug":"two-sum","isPaidOnly":false,"difficulty":"Easy",
	"content":"<p>Given an array...</p>","translatedContent":"<p>给定一个数组...</p>"
}}`

func TestDetail_DecodesFullPayload(t *testing.T) {
	gateway := &fakeGateway{
		graphQLFn: func(_ context.Context, _ *domain.SessionRecord, target domain.Domain, _ string, variables map[string]any) (*domain.GraphQLResult, error) {
			if target == domain.DomainSecondary {
				return graphQLOK(t, secondaryDetailBody), nil
			}
			if variables["titleSlug"] != "two-sum" {
				t.Fatalf("expected titleSlug variable, got %v", variables["titleSlug"])
			}
			return graphQLOK(t, primaryDetailBody), nil
		},
	}
	svc := NewProblemService(gateway, nil)

	detail, err := svc.Detail(context.Background(), nil, "two-sum")
	if err != nil {
		t.Fatalf("Detail returned error: %v", err)
	}

	if detail.Title != "Two Sum" || detail.Difficulty != domain.DifficultyEasy {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if detail.Likes != 10 || detail.Dislikes != 2 {
		t.Fatalf("expected vote counts, got %d/%d", detail.Likes, detail.Dislikes)
	}
	if len(detail.Testcases) != 1 {
		t.Fatalf("expected one example testcase, got %d", len(detail.Testcases))
	}
	if len(detail.TopicTags) != 1 || detail.TopicTags[0].Slug != "array" {
		t.Fatalf("expected array topic tag, got %+v", detail.TopicTags)
	}
	if len(detail.CodeSnippets) != 1 || detail.CodeSnippets[0].LanguageSlug != "golang" {
		t.Fatalf("expected go snippet, got %+v", detail.CodeSnippets)
	}
}

func TestDetail_NullQuestionIsNotFound(t *testing.T) {
	gateway := &fakeGateway{
		graphQLFn: func(context.Context, *domain.SessionRecord, domain.Domain, string, map[string]any) (*domain.GraphQLResult, error) {
			return graphQLOK(t, `{"question":null}`), nil
		},
	}
	svc := NewProblemService(gateway, nil)

	_, err := svc.Detail(context.Background(), nil, "no-such-problem")
	if !errors.Is(err, ErrProblemNotFound) {
		t.Fatalf("expected ErrProblemNotFound, got %v", err)
	}
}

func TestDetail_SecondaryEnrichmentFillsMissingFields(t *testing.T) {
	var secondaryCalls int
	gateway := &fakeGateway{
		graphQLFn: func(_ context.Context, session *domain.SessionRecord, target domain.Domain, _ string, _ map[string]any) (*domain.GraphQLResult, error) {
			if target == domain.DomainSecondary {
				secondaryCalls++
				if session != nil {
					t.Fatalf("secondary lookup must be anonymous")
				}
				return graphQLOK(t, secondaryDetailBody), nil
			}
			return graphQLOK(t, primaryDetailBody), nil
		},
	}
	svc := NewProblemService(gateway, nil)

	session := &domain.SessionRecord{Domain: domain.DomainPrimary}
	detail, err := svc.Detail(context.Background(), session, "two-sum")
	if err != nil {
		t.Fatalf("Detail returned error: %v", err)
	}

	if secondaryCalls != 1 {
		t.Fatalf("expected one secondary lookup, got %d", secondaryCalls)
	}
	if detail.LocalizedTitle != "两数之和" {
		t.Fatalf("expected localized title to be back-filled, got %q", detail.LocalizedTitle)
	}
	if detail.LocalizedContent != "<p>给定一个数组...</p>" {
		t.Fatalf("expected localized content to be back-filled, got %q", detail.LocalizedContent)
	}
	// The primary fields are untouched.
	if detail.Content != "<p>Given an array...</p>" {
		t.Fatalf("primary content must not be overwritten, got %q", detail.Content)
	}
}

func TestDetail_NoEnrichmentWhenAlreadyLocalized(t *testing.T) {
	gateway := &fakeGateway{
		graphQLFn: func(_ context.Context, _ *domain.SessionRecord, target domain.Domain, _ string, _ map[string]any) (*domain.GraphQLResult, error) {
			if target == domain.DomainSecondary {
				t.Fatalf("unexpected secondary lookup")
			}
			return graphQLOK(t, secondaryDetailBody), nil
		},
	}
	svc := NewProblemService(gateway, nil)

	session := &domain.SessionRecord{Domain: domain.DomainPrimary}
	detail, err := svc.Detail(context.Background(), session, "two-sum")
	if err != nil {
		t.Fatalf("Detail returned error: %v", err)
	}
	if detail.LocalizedTitle != "两数之和" {
		t.Fatalf("expected localized title from the primary response")
	}
}

func TestDetail_EnrichmentPrefersLocalizedContent(t *testing.T) {
	// When the secondary carries no translatedContent its plain content is the
	// fallback fill-in.
	gateway := &fakeGateway{
		graphQLFn: func(_ context.Context, _ *domain.SessionRecord, target domain.Domain, _ string, _ map[string]any) (*domain.GraphQLResult, error) {
			if target == domain.DomainSecondary {
				return graphQLOK(t, `{"question":{
					"questionId":"1","title":"Two Sum","translatedTitle":"两数之和","titleSlug":"two-sum",
					"difficulty":"Easy","content":"<p>给定...</p>"
				}}`), nil
			}
			return graphQLOK(t, primaryDetailBody), nil
		},
	}
	svc := NewProblemService(gateway, nil)

	session := &domain.SessionRecord{Domain: domain.DomainPrimary}
	detail, err := svc.Detail(context.Background(), session, "two-sum")
	if err != nil {
		t.Fatalf("Detail returned error: %v", err)
	}
	if detail.LocalizedContent != "<p>给定...</p>" {
		t.Fatalf("expected secondary content fallback, got %q", detail.LocalizedContent)
	}
}

func TestDetail_EnrichmentFailureIsNonFatal(t *testing.T) {
	gateway := &fakeGateway{
		graphQLFn: func(_ context.Context, _ *domain.SessionRecord, target domain.Domain, _ string, _ map[string]any) (*domain.GraphQLResult, error) {
			if target == domain.DomainSecondary {
				return nil, domain.ErrUpstreamUnreachable
			}
			return graphQLOK(t, primaryDetailBody), nil
		},
	}
	svc := NewProblemService(gateway, nil)

	session := &domain.SessionRecord{Domain: domain.DomainPrimary}
	detail, err := svc.Detail(context.Background(), session, "two-sum")
	if err != nil {
		t.Fatalf("enrichment failure must not fail the lookup: %v", err)
	}
	if detail.LocalizedTitle != "" {
		t.Fatalf("expected localized title to stay empty")
	}
}

func TestDetail_UpstreamFailureIsAuthoritative(t *testing.T) {
	gateway := &fakeGateway{
		graphQLFn: func(context.Context, *domain.SessionRecord, domain.Domain, string, map[string]any) (*domain.GraphQLResult, error) {
			return &domain.GraphQLResult{StatusCode: 500, Raw: []byte("server error")}, nil
		},
	}
	svc := NewProblemService(gateway, nil)

	_, err := svc.Detail(context.Background(), nil, "two-sum")
	var upstreamErr *domain.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != 500 {
		t.Fatalf("expected the last attempt's status, got %d", upstreamErr.StatusCode)
	}
}
