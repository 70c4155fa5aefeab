package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
	"github.com/qwezhou/AAA-Code/internal/core/port"
)

// SubmitInput carries one code submission.
type SubmitInput struct {
	Slug       string
	Language   string
	Code       string
	QuestionID string
}

// SubmissionService submits code and exposes a stateless status check. The
// service holds no timers and no per-submission state: polling cadence and
// the terminal-state stop condition belong entirely to the calling client.
type SubmissionService struct {
	gateway  port.Gateway
	problems *ProblemService
	logger   *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(gateway port.Gateway, problems *ProblemService, log *zap.Logger) *SubmissionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionService{
		gateway:  gateway,
		problems: problems,
		logger:   log,
	}
}

// Submit sends the code to the upstream judge and returns the submission
// identifier it assigned. When the caller did not supply a question id it is
// resolved through a detail lookup first.
func (s *SubmissionService) Submit(ctx context.Context, session *domain.SessionRecord, input SubmitInput) (string, error) {
	questionID := strings.TrimSpace(input.QuestionID)
	if questionID == "" {
		detail, err := s.problems.Detail(ctx, session, input.Slug)
		if err != nil {
			return "", fmt.Errorf("resolve question id: %w", err)
		}
		questionID = detail.ID
	}

	payload, err := json.Marshal(map[string]string{
		"lang":        input.Language,
		"question_id": questionID,
		"typed_code":  input.Code,
	})
	if err != nil {
		return "", fmt.Errorf("marshal submission: %w", err)
	}

	path := "/problems/" + url.PathEscape(input.Slug) + "/submit/"
	resp, err := s.gateway.Request(ctx, session, path, port.RequestOptions{
		Method: http.MethodPost,
		Body:   payload,
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", &domain.UpstreamError{
			Operation:  "submit",
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		}
	}

	var submitted struct {
		SubmissionID json.Number `json:"submission_id"`
	}
	if err := json.Unmarshal(resp.Body, &submitted); err != nil || submitted.SubmissionID.String() == "" {
		return "", &domain.UpstreamError{
			Operation:  "submit",
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		}
	}

	s.logger.Info("code submitted",
		zap.String("slug", input.Slug),
		zap.String("lang", input.Language),
		zap.String("submission_id", submitted.SubmissionID.String()),
	)

	return submitted.SubmissionID.String(), nil
}

// CheckStatus passes the upstream judge status through unchanged. It makes no
// terminal-vs-pending judgment; a caller polling on a fixed interval decides
// when to stop.
func (s *SubmissionService) CheckStatus(ctx context.Context, session *domain.SessionRecord, submissionID string) (domain.StatusSnapshot, error) {
	path := "/submissions/detail/" + url.PathEscape(submissionID) + "/check/"
	resp, err := s.gateway.Request(ctx, session, path, port.RequestOptions{
		Method: http.MethodGet,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &domain.UpstreamError{
			Operation:  "submission check",
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		}
	}

	var snapshot domain.StatusSnapshot
	if err := json.Unmarshal(resp.Body, &snapshot); err != nil {
		return nil, &domain.UpstreamError{
			Operation:  "submission check",
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
		}
	}

	return snapshot, nil
}
