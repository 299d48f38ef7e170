package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/refereed/internal/analyze"
	"github.com/fyrsmithlabs/refereed/internal/completion"
	"github.com/fyrsmithlabs/refereed/internal/logging"
	"github.com/fyrsmithlabs/refereed/internal/review"
)

// errorBody is the uniform JSON error envelope. No stack traces, no raw
// upstream payloads.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// handleError renders every handler error as the JSON envelope.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	if writeErr := c.JSON(status, body); writeErr != nil {
		s.logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// mapError classifies a handler error into a status code and envelope.
func mapError(err error) (int, errorBody) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code, errorBody{Error: fmt.Sprintf("%v", he.Message)}
	case errors.Is(err, review.ErrInvalidTask), errors.Is(err, analyze.ErrInvalidInput):
		return http.StatusBadRequest, errorBody{Error: "validation failed", Details: err.Error()}
	case errors.Is(err, completion.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorBody{Error: "upstream completion timed out", Details: err.Error()}
	case errors.Is(err, completion.ErrRateLimited):
		return http.StatusTooManyRequests, errorBody{Error: "upstream rate limit exceeded", Details: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal server error", Details: err.Error()}
	}
}

// upstreamContext bounds a handler's upstream conversation by the
// configured timeout and carries the request ID so service logs correlate
// with access logs.
func (s *Server) upstreamContext(c echo.Context) (context.Context, context.CancelFunc) {
	ctx := logging.WithRequestID(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID))
	return context.WithTimeout(ctx, s.config.UpstreamTimeout)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleTerm(c echo.Context) error {
	var req analyze.TermRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := s.upstreamContext(c)
	defer cancel()

	result, err := s.analyses.Term(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleCitationsBatch(c echo.Context) error {
	var req analyze.BatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := s.upstreamContext(c)
	defer cancel()

	decisions, err := s.analyses.CitationsBatch(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, decisions)
}

// handleFormat is a deterministic local parse; no upstream call, no
// timeout context.
func (s *Server) handleFormat(c echo.Context) error {
	var req analyze.CaptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.JSON(http.StatusOK, analyze.ParseCaption(req.RawCaption))
}

func (s *Server) handleFormatReference(c echo.Context) error {
	var req analyze.ReferenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := s.upstreamContext(c)
	defer cancel()

	ref, err := s.analyses.FormatReference(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ref)
}

func (s *Server) handleCite(c echo.Context) error {
	var req analyze.CiteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := s.upstreamContext(c)
	defer cancel()

	need, err := s.analyses.Cite(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, need)
}

func (s *Server) handleReviewPaper(c echo.Context) error {
	var task review.Task
	if err := c.Bind(&task); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := s.upstreamContext(c)
	defer cancel()

	outcome, err := s.reviews.Review(ctx, task)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, outcome)
}
