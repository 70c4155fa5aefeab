package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qwezhou/AAA-Code/internal/transport/http/middleware"
	"github.com/qwezhou/AAA-Code/internal/usecase"
)

// ProblemHandler exposes the catalog and single-problem endpoints.
type ProblemHandler struct {
	problems *usecase.ProblemService
}

// NewProblemHandler constructs ProblemHandler.
func NewProblemHandler(problems *usecase.ProblemService) *ProblemHandler {
	return &ProblemHandler{problems: problems}
}

// RegisterRoutes binds problem routes onto the group.
func (h *ProblemHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/problems", h.list)
	r.GET("/problem/:slug", h.detail)
}

func (h *ProblemHandler) list(c *gin.Context) {
	session := middleware.SessionRecord(c)

	lang := strings.TrimSpace(c.Query("lang"))
	input := usecase.ListInput{
		Search:        c.Query("q"),
		Category:      c.Query("category"),
		WantLocalized: lang != "" && !strings.EqualFold(lang, "en"),
	}

	items, err := h.problems.List(c.Request.Context(), session, input)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to fetch problem list")
		return
	}

	payload := make([]ProblemItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, newProblemItemPayload(item))
	}

	c.JSON(http.StatusOK, ProblemListResponse{Items: payload})
}

func (h *ProblemHandler) detail(c *gin.Context) {
	session := middleware.SessionRecord(c)

	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "VALIDATION", "slug is required"))
		return
	}

	detail, err := h.problems.Detail(c.Request.Context(), session, slug)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrProblemNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "problem not found"},
		}, http.StatusInternalServerError, "failed to fetch problem")
		return
	}

	c.JSON(http.StatusOK, ProblemDetailResponse{Question: newProblemDetailPayload(*detail)})
}
