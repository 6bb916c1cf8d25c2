package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omadigital23/assistant/internal/profile"
	"github.com/omadigital23/assistant/plugin/ai/cache"
	"github.com/omadigital23/assistant/plugin/ai/rag"
	"github.com/omadigital23/assistant/server/answer"
	"github.com/omadigital23/assistant/server/internal/observability"
	ratelimit "github.com/omadigital23/assistant/server/middleware"
	"github.com/omadigital23/assistant/store"
)

type fakeAnswerer struct {
	question string
	opts     answer.Options
}

func (f *fakeAnswerer) Answer(_ context.Context, question string, opts answer.Options) *answer.AnswerEnvelope {
	f.question, f.opts = question, opts
	return &answer.AnswerEnvelope{
		Answer:     "We build websites.",
		Source:     answer.SourceRetrievalOnly,
		Confidence: 1,
		Language:   store.LanguageEnglish,
		Documents:  []string{"services-en"},
		RequestID:  "req-1",
	}
}

func newTestServer(answerer Answerer, limiter *ratelimit.RateLimiter) (*echo.Echo, *APIV1Service) {
	e := echo.New()
	s := NewAPIV1Service(&profile.Profile{Version: "1.0.0"}, answerer, observability.NewMetrics(0), limiter)
	s.Register(e)
	return e, s
}

func post(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/answer", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPostAnswer(t *testing.T) {
	answerer := &fakeAnswerer{}
	e, _ := newTestServer(answerer, nil)

	rec := post(e, `{"question":"  What are your services?  ","language":"en","limit":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "What are your services?", answerer.question)
	assert.Equal(t, answer.Options{Language: "en", Limit: 3}, answerer.opts)

	var env answer.AnswerEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, answer.SourceRetrievalOnly, env.Source)
	assert.Equal(t, []string{"services-en"}, env.Documents)
}

func TestPostAnswer_Validation(t *testing.T) {
	e, _ := newTestServer(&fakeAnswerer{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"question":`},
		{"missing question", `{"language":"en"}`},
		{"blank question", `{"question":"   "}`},
		{"too long", `{"question":"` + strings.Repeat("a", MaxQuestionLength+1) + `"}`},
		{"negative limit", `{"question":"hi","limit":-1}`},
		{"limit too large", `{"question":"hi","limit":500}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, post(e, tt.body).Code)
		})
	}
}

func TestPostAnswer_RateLimited(t *testing.T) {
	e, _ := newTestServer(&fakeAnswerer{}, ratelimit.NewRateLimiter(0.001, 1))

	assert.Equal(t, http.StatusOK, post(e, `{"question":"hi"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(e, `{"question":"hi"}`).Code)
}

func TestGetMetrics(t *testing.T) {
	e, s := newTestServer(&fakeAnswerer{}, nil)
	s.Metrics.RecordAnswer(string(answer.SourceRetrievalOnly), false, 0)
	s.CacheStats = func() cache.Stats { return cache.Stats{Hits: 2, Size: 1} }
	s.BreakerState = func() string { return "closed" }

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Answers.AnswersTotal)
	require.NotNil(t, resp.Cache)
	assert.Equal(t, int64(2), resp.Cache.Hits)
	assert.Equal(t, "closed", resp.Breaker)
}

func TestGetHealth(t *testing.T) {
	e, s := newTestServer(&fakeAnswerer{}, nil)
	s.Inventory = rag.NewInventory()

	get := func() HealthResponse {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	resp := get()
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)

	s.Inventory.Replace([]*store.KnowledgeEntry{{ID: "a", Language: store.LanguageFrench, Category: store.CategoryAbout, Active: true}})
	resp = get()
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.InventorySize)
	assert.NotEmpty(t, resp.InventoryUpdatedAt)
}
