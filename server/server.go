// Package server assembles the answer core behind its HTTP boundary.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/internal/profile"
	"github.com/omadigital23/assistant/plugin/ai"
	"github.com/omadigital23/assistant/plugin/ai/cache"
	"github.com/omadigital23/assistant/plugin/ai/cta"
	"github.com/omadigital23/assistant/plugin/ai/rag"
	"github.com/omadigital23/assistant/plugin/ai/router"
	"github.com/omadigital23/assistant/plugin/ai/timeout"
	"github.com/omadigital23/assistant/server/answer"
	"github.com/omadigital23/assistant/server/internal/observability"
	ratelimit "github.com/omadigital23/assistant/server/middleware"
	"github.com/omadigital23/assistant/server/queryengine"
	apiv1 "github.com/omadigital23/assistant/server/router/api/v1"
	"github.com/omadigital23/assistant/server/runner/conversation"
	"github.com/omadigital23/assistant/server/runner/inventory"
	"github.com/omadigital23/assistant/store"
)

// limiterIdle is how long a client's rate limiter is kept without requests.
const limiterIdle = 10 * time.Minute

// Server owns every long-lived component of the assistant.
type Server struct {
	Profile    *profile.Profile
	Store      *store.Store
	Controller *answer.Controller

	echoServer      *echo.Echo
	cache           *cache.Service[*rag.RankedResult]
	inventory       *rag.Inventory
	inventoryRunner *inventory.Runner
	dispatcher      *conversation.Dispatcher
	limiter         *ratelimit.RateLimiter

	runnerCancel context.CancelFunc
	runners      sync.WaitGroup
}

// NewLogHandler wraps inner so that records logged with a request context
// carry its request ID.
func NewLogHandler(inner slog.Handler) slog.Handler {
	return observability.NewContextHandler(inner)
}

// NewServer wires the components described by profile on top of store.
func NewServer(ctx context.Context, profile *profile.Profile, storeInstance *store.Store) (*Server, error) {
	s := &Server{
		Profile:   profile,
		Store:     storeInstance,
		inventory: rag.NewInventory(),
		limiter:   ratelimit.NewRateLimiter(0, 0),
	}

	s.cache = cache.NewService[*rag.RankedResult](cache.ServiceConfig{
		Capacity: profile.CacheCapacity,
		TTL:      profile.CacheTTL,
	})
	orchestrator := rag.NewOrchestrator(storeInstance,
		rag.WithCache(s.cache),
		rag.WithInventory(s.inventory),
		rag.WithTimeout(profile.RetrievalTimeout),
	)

	dispatcher, err := conversation.NewDispatcher(storeInstance, conversation.DefaultPoolSize)
	if err != nil {
		s.cache.Close()
		return nil, err
	}
	s.dispatcher = dispatcher

	metrics := observability.NewMetrics(0)
	opts := []answer.Option{
		answer.WithMetrics(metrics),
		answer.WithDispatcher(dispatcher),
		answer.WithPolicy(cta.NewProcessor(nil)),
	}

	var client *ai.Client
	llmConfig := ai.NewLLMConfigFromProfile(profile)
	if llmConfig.Enabled() {
		client, err = ai.NewClient(llmConfig)
		if err != nil {
			s.cache.Close()
			_ = dispatcher.Close(0)
			return nil, errors.Wrap(err, "failed to create generative client")
		}
		opts = append(opts, answer.WithCompleter(client))
	} else {
		slog.InfoContext(ctx, "no generative model configured, answers rely on retrieval only")
	}

	fallback, ok := store.ParseLanguage(profile.DefaultLanguage)
	if !ok {
		fallback = store.LanguageFrench
	}
	s.Controller = answer.NewController(
		answer.NewConfigFromProfile(profile),
		queryengine.NewNormalizer(nil, fallback),
		router.NewService(),
		orchestrator,
		opts...,
	)

	s.inventoryRunner = inventory.NewRunner(storeInstance, s.inventory, profile.InventoryInterval)

	s.echoServer = echo.New()
	s.echoServer.HideBanner = true
	s.echoServer.HidePort = true
	s.echoServer.Use(middleware.Recover())
	s.echoServer.Use(middleware.BodyLimit("64K"))

	api := apiv1.NewAPIV1Service(profile, s.Controller, metrics, s.limiter)
	api.Inventory = s.inventory
	api.CacheStats = s.cache.Stats
	if client != nil {
		api.BreakerState = func() string { return client.BreakerState().String() }
	}
	api.Register(s.echoServer)

	return s, nil
}

// StartRunners starts the background runners. They stop on Shutdown.
func (s *Server) StartRunners(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.runnerCancel = cancel

	s.runners.Add(2)
	go func() {
		defer s.runners.Done()
		s.inventoryRunner.Run(ctx)
	}()
	go func() {
		defer s.runners.Done()
		ticker := time.NewTicker(limiterIdle)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.limiter.Prune(limiterIdle)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Start runs the HTTP server until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.StartRunners(ctx)

	address := net.JoinHostPort(s.Profile.Addr, strconv.Itoa(s.Profile.Port))
	slog.InfoContext(ctx, "assistant listening", slog.String("address", address), slog.String("version", s.Profile.Version))
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start server")
	}
	return nil
}

// Shutdown stops the HTTP server, the runners, the conversation log pool,
// the cache sweep and the store, in that order.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, timeout.ShutdownTimeout)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown server", slog.String("error", err.Error()))
	}
	s.Close(ctx)
	slog.Info("assistant stopped")
}

// Close releases everything but the HTTP server. It is used directly by
// one-shot commands that never start it.
func (s *Server) Close(ctx context.Context) {
	if s.runnerCancel != nil {
		s.runnerCancel()
	}
	s.runners.Wait()

	wait := timeout.ShutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		wait = time.Until(deadline)
	}
	if err := s.dispatcher.Close(wait); err != nil {
		slog.WarnContext(ctx, "conversation logs still pending at shutdown", slog.String("error", err.Error()))
	}
	s.cache.Close()
	if err := s.Store.Close(); err != nil {
		slog.ErrorContext(ctx, "failed to close store", slog.String("error", err.Error()))
	}
}

// Handler exposes the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}
