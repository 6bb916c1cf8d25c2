package v1

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/omadigital23/assistant/plugin/ai/rag"
	"github.com/omadigital23/assistant/server/answer"
)

// MaxQuestionLength bounds the accepted question, in characters.
const MaxQuestionLength = 1000

// AnswerRequest is the body of POST /api/v1/answer.
type AnswerRequest struct {
	Question string `json:"question"`
	Language string `json:"language,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// PostAnswer answers a question.
// POST /api/v1/answer
func (s *APIV1Service) PostAnswer(c echo.Context) error {
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}
	if utf8.RuneCountInString(req.Question) > MaxQuestionLength {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is too long"})
	}
	if req.Limit < 0 || req.Limit > rag.MaxCachedResults {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit is out of range"})
	}

	env := s.Answerer.Answer(c.Request().Context(), req.Question, answer.Options{
		Language: req.Language,
		Limit:    req.Limit,
	})
	if env.Degraded {
		slog.WarnContext(c.Request().Context(), "degraded answer served",
			slog.String("request_id", env.RequestID),
			slog.String("error_code", env.ErrorCode),
		)
	}
	return c.JSON(http.StatusOK, env)
}
