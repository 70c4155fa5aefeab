package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qwezhou/AAA-Code/internal/transport/http/middleware"
	"github.com/qwezhou/AAA-Code/internal/usecase"
)

// SubmissionHandler exposes code submission and the idempotent status check
// the client polls on its own schedule.
type SubmissionHandler struct {
	submissions *usecase.SubmissionService
}

// NewSubmissionHandler constructs SubmissionHandler.
func NewSubmissionHandler(submissions *usecase.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// RegisterRoutes binds submission routes onto the group.
func (h *SubmissionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/submit", h.submit)
	r.GET("/submission/:id/check", h.checkStatus)
}

func (h *SubmissionHandler) submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "VALIDATION", "slug, lang and code are required"))
		return
	}

	submissionID, err := h.submissions.Submit(c.Request.Context(), middleware.SessionRecord(c), usecase.SubmitInput{
		Slug:       strings.TrimSpace(req.Slug),
		Language:   strings.TrimSpace(req.Lang),
		Code:       req.Code,
		QuestionID: req.QuestionID,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrProblemNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "problem not found"},
		}, http.StatusInternalServerError, "failed to submit code")
		return
	}

	c.JSON(http.StatusOK, SubmitResponse{SubmissionID: submissionID})
}

func (h *SubmissionHandler) checkStatus(c *gin.Context) {
	submissionID := strings.TrimSpace(c.Param("id"))
	if submissionID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "VALIDATION", "submission id is required"))
		return
	}

	snapshot, err := h.submissions.CheckStatus(c.Request.Context(), middleware.SessionRecord(c), submissionID)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to check submission")
		return
	}

	c.JSON(http.StatusOK, CheckStatusResponse{Submission: snapshot})
}
