package v1

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/omadigital23/assistant/internal/profile"
	"github.com/omadigital23/assistant/plugin/ai/cache"
	"github.com/omadigital23/assistant/plugin/ai/rag"
	"github.com/omadigital23/assistant/server/answer"
	"github.com/omadigital23/assistant/server/internal/observability"
	ratelimit "github.com/omadigital23/assistant/server/middleware"
)

// Answerer answers one question. *answer.Controller satisfies it.
type Answerer interface {
	Answer(ctx context.Context, question string, opts answer.Options) *answer.AnswerEnvelope
}

// APIV1Service exposes the answer core over HTTP.
type APIV1Service struct {
	Profile  *profile.Profile
	Answerer Answerer
	Metrics  *observability.Metrics

	// Optional health sources.
	Inventory    *rag.Inventory
	CacheStats   func() cache.Stats
	BreakerState func() string

	limiter *ratelimit.RateLimiter
}

// NewAPIV1Service creates the API service.
func NewAPIV1Service(profile *profile.Profile, answerer Answerer, metrics *observability.Metrics, limiter *ratelimit.RateLimiter) *APIV1Service {
	if limiter == nil {
		limiter = ratelimit.NewRateLimiter(0, 0)
	}
	if metrics == nil {
		metrics = observability.NewMetrics(0)
	}
	return &APIV1Service{
		Profile:  profile,
		Answerer: answerer,
		Metrics:  metrics,
		limiter:  limiter,
	}
}

// Register mounts the routes on echoServer.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	echoServer.GET("/healthz", s.GetHealth)

	group := echoServer.Group("/api/v1")
	group.Use(middleware.CORS())
	group.POST("/answer", s.PostAnswer, s.limiter.Middleware())
	group.GET("/metrics", s.GetMetrics)
}
