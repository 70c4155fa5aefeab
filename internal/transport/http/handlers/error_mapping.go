package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qwezhou/AAA-Code/internal/core/domain"
)

// ErrorCase maps a sentinel error to an HTTP status code and response payload.
type ErrorCase struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// RespondWithMappedError resolves the provided error against known cases,
// then against the upstream error taxonomy, before falling back to a generic
// response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Code, cs.Message))
			return
		}
	}

	if respondUpstreamError(c, err) {
		return
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, "", fallbackMessage))
}

// respondUpstreamError surfaces upstream failures as 502 with the platform's
// own diagnostic payload attached.
func respondUpstreamError(c *gin.Context, err error) bool {
	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		resp := NewErrorResponse(c, "UPSTREAM_ERROR", upstreamErr.Error())
		c.JSON(http.StatusBadGateway, gin.H{
			"error":           resp.Error,
			"code":            resp.Code,
			"trace_id":        resp.TraceID,
			"upstream_status": upstreamErr.StatusCode,
			"upstream_body":   upstreamErr.Body,
		})
		return true
	}

	if errors.Is(err, domain.ErrUpstreamUnreachable) {
		c.JSON(http.StatusBadGateway, NewErrorResponse(c, "UPSTREAM_UNREACHABLE", "judging platform unreachable"))
		return true
	}

	return false
}
