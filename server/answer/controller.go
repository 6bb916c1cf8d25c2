package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/omadigital23/assistant/internal/profile"
	"github.com/omadigital23/assistant/plugin/ai"
	"github.com/omadigital23/assistant/plugin/ai/cta"
	"github.com/omadigital23/assistant/plugin/ai/rag"
	"github.com/omadigital23/assistant/plugin/ai/router"
	"github.com/omadigital23/assistant/plugin/ai/timeout"
	"github.com/omadigital23/assistant/server/internal/observability"
	"github.com/omadigital23/assistant/server/queryengine"
	"github.com/omadigital23/assistant/server/runner/conversation"
	"github.com/omadigital23/assistant/store"
)

const (
	// HighThreshold is the top confidence at which retrieval answers alone.
	HighThreshold = 0.7
	// DegradedPenalty scales the confidence of an augmented answer whose model call failed.
	DegradedPenalty = 0.8
	// FallbackConfidence is the confidence of an ungrounded model answer.
	FallbackConfidence = 0.3
	// ApologyConfidence is the confidence of the static apology.
	ApologyConfidence = 0.1
	// ComposedDocuments is how many entries a retrieval-only answer quotes at most.
	ComposedDocuments = 2
)

// Retriever returns ranked entries for a query. *rag.Orchestrator satisfies it.
type Retriever interface {
	Search(ctx context.Context, q *queryengine.NormalizedQuery, cls router.Classification, opts rag.Options) *rag.RankedResult
}

// Classifier labels a query with an intent. *router.Service satisfies it.
type Classifier interface {
	Classify(ctx context.Context, q *queryengine.NormalizedQuery) router.Classification
}

// Dispatcher takes finalized answers off the request path.
type Dispatcher interface {
	Dispatch(ctx context.Context, e conversation.Event) bool
}

// Config tunes the controller.
type Config struct {
	DefaultLanguage store.Language
	DefaultLimit    int
	AnswerTimeout   time.Duration
	BusinessName    string
	ContactLine     string
}

// NewConfigFromProfile maps the profile onto a controller config.
func NewConfigFromProfile(p *profile.Profile) Config {
	lang, ok := store.ParseLanguage(p.DefaultLanguage)
	if !ok {
		lang = store.LanguageFrench
	}
	return Config{
		DefaultLanguage: lang,
		DefaultLimit:    p.DefaultLimit,
		AnswerTimeout:   p.AnswerTimeout,
		BusinessName:    p.BusinessName,
		ContactLine:     p.ContactLine,
	}
}

func (c *Config) withDefaults() {
	if _, ok := store.ParseLanguage(string(c.DefaultLanguage)); !ok {
		c.DefaultLanguage = store.LanguageFrench
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = rag.DefaultLimit
	}
	if c.AnswerTimeout <= 0 {
		c.AnswerTimeout = timeout.AnswerTimeout
	}
	if c.BusinessName == "" {
		c.BusinessName = "our agency"
	}
}

// Controller answers questions. It is safe for concurrent use.
type Controller struct {
	config     Config
	normalizer *queryengine.Normalizer
	classifier Classifier
	retriever  Retriever
	completer  ai.Completer
	policy     *cta.Processor
	metrics    *observability.Metrics
	dispatcher Dispatcher
	logger     *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithCompleter enables escalation to a generative model. Without one every
// escalation degrades as if the model were unavailable.
func WithCompleter(c ai.Completer) Option {
	return func(ctrl *Controller) { ctrl.completer = c }
}

// WithPolicy replaces the default answer policy.
func WithPolicy(p *cta.Processor) Option {
	return func(c *Controller) { c.policy = p }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithDispatcher records finalized answers.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Controller) { c.dispatcher = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller.
func NewController(cfg Config, normalizer *queryengine.Normalizer, classifier Classifier, retriever Retriever, opts ...Option) *Controller {
	cfg.withDefaults()
	c := &Controller{
		config:     cfg,
		normalizer: normalizer,
		classifier: classifier,
		retriever:  retriever,
		policy:     cta.NewProcessor(nil),
		metrics:    observability.NewMetrics(0),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Metrics exposes the collector.
func (c *Controller) Metrics() *observability.Metrics {
	return c.metrics
}

// Answer returns the answer to question. It never fails: store and model
// failures yield a weaker envelope, flagged Degraded with an error code.
func (c *Controller) Answer(ctx context.Context, question string, opts Options) (env *AnswerEnvelope) {
	declared, ok := store.ParseLanguage(opts.Language)
	if !ok && strings.TrimSpace(opts.Language) != "" {
		c.logger.DebugContext(ctx, "ignoring unsupported language", slog.String("language", opts.Language))
	}
	reqCtx := observability.NewRequestContext(c.logger, string(declared))
	ctx = observability.WithRequestContext(ctx, reqCtx)
	ctx, cancel := context.WithTimeout(ctx, c.config.AnswerTimeout)
	defer cancel()

	cls := router.Classification{Intent: router.IntentGeneral}
	defer func() {
		if r := recover(); r != nil {
			reqCtx.Error(ctx, "answer panicked", fmt.Errorf("%v", r))
			env = c.finalize(ctx, reqCtx, question, cls, &AnswerEnvelope{
				Answer:     c.apology(c.responseLanguage(declared, "")),
				Source:     SourceGenerativeFallback,
				Confidence: ApologyConfidence,
				Language:   c.responseLanguage(declared, ""),
				Documents:  []string{},
				Degraded:   true,
				ErrorCode:  "INTERNAL",
			})
		}
	}()

	limit := opts.Limit
	if limit <= 0 {
		limit = c.config.DefaultLimit
	}

	q := c.normalizer.Normalize(question, declared)
	cls = c.classifier.Classify(ctx, q)
	result := c.retriever.Search(ctx, q, cls, rag.Options{Limit: limit})
	if !q.Empty() {
		c.metrics.RecordCache(result.CacheHit)
	}

	out := c.escalate(ctx, question, q, declared, result)
	out.CacheHit = result.CacheHit
	if result.Degraded {
		out.Degraded = true
	}
	return c.finalize(ctx, reqCtx, question, cls, out)
}

// escalate picks the answer path from the ranked result.
func (c *Controller) escalate(ctx context.Context, question string, q *queryengine.NormalizedQuery, declared store.Language, result *rag.RankedResult) *AnswerEnvelope {
	top, found := result.Top()
	switch {
	case found && top.Confidence >= HighThreshold:
		text, ids := compose(result.Items, ComposedDocuments)
		return &AnswerEnvelope{
			Answer:     text,
			Source:     SourceRetrievalOnly,
			Confidence: top.Confidence,
			Language:   c.responseLanguage(declared, top.Entry.Language),
			Documents:  ids,
		}

	case found:
		lang := c.responseLanguage(declared, top.Entry.Language)
		completion, err := c.complete(ctx, c.groundedMessages(question, result.Items, lang))
		if err != nil {
			text, ids := compose(result.Items, ComposedDocuments)
			return &AnswerEnvelope{
				Answer:     text,
				Source:     SourceRetrievalAugmented,
				Confidence: top.Confidence * DegradedPenalty,
				Language:   lang,
				Documents:  ids,
				Degraded:   true,
				ErrorCode:  errorCode(err),
			}
		}
		if declared == "" {
			lang = completion.Language
		}
		return &AnswerEnvelope{
			Answer:     completion.Text,
			Source:     SourceRetrievalAugmented,
			Confidence: top.Confidence,
			Language:   lang,
			Documents:  result.DocumentIDs(),
		}
	}

	lang := c.responseLanguage(declared, q.DetectedLanguage)
	if strings.TrimSpace(question) == "" {
		return &AnswerEnvelope{
			Answer:     rephrase[lang],
			Source:     SourceGenerativeFallback,
			Confidence: ApologyConfidence,
			Language:   lang,
			Documents:  []string{},
		}
	}
	completion, err := c.complete(ctx, c.fallbackMessages(question, lang))
	if err != nil {
		return &AnswerEnvelope{
			Answer:     c.apology(lang),
			Source:     SourceGenerativeFallback,
			Confidence: ApologyConfidence,
			Language:   lang,
			Documents:  []string{},
			Degraded:   true,
			ErrorCode:  errorCode(err),
		}
	}
	if declared == "" {
		lang = completion.Language
	}
	return &AnswerEnvelope{
		Answer:     completion.Text,
		Source:     SourceGenerativeFallback,
		Confidence: FallbackConfidence,
		Language:   lang,
		Documents:  []string{},
	}
}

// complete calls the model unless it is disabled or the answer budget is
// too short for a call to finish.
func (c *Controller) complete(ctx context.Context, messages []ai.Message) (*ai.Completion, error) {
	if c.completer == nil {
		return nil, &ai.AIError{Code: ai.ErrCodeDisabled, Message: "no generative model configured"}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout.CompletionReserve {
		return nil, &ai.AIError{Code: ai.ErrCodeTimeout, Message: "answer budget exhausted before completion"}
	}
	completion, err := c.completer.Complete(ctx, messages)
	if err != nil {
		c.metrics.RecordCompletion(ai.AttemptsFromError(err), true)
		slog.WarnContext(ctx, "generative completion failed",
			slog.String(observability.LogFieldErrorCode, errorCode(err)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	c.metrics.RecordCompletion(completion.Attempts, false)
	if strings.TrimSpace(completion.Text) == "" {
		return nil, &ai.AIError{Code: ai.ErrCodeEmptyResponse, Message: "completion has no text"}
	}
	return completion, nil
}

// finalize applies the answer policy, records metrics and dispatches the
// conversation event.
func (c *Controller) finalize(ctx context.Context, reqCtx *observability.RequestContext, question string, cls router.Classification, env *AnswerEnvelope) *AnswerEnvelope {
	draft := c.policy.Apply(cta.Draft{Text: env.Answer}, cls, env.Language)
	env.Answer = draft.Text
	env.CTA = draft.CTA
	env.Suggestions = cta.Suggestions(cls.Intent, env.Language)
	env.Intent = cls.Intent
	env.RequestID = reqCtx.RequestID
	if env.Documents == nil {
		env.Documents = []string{}
	}

	latency := reqCtx.Duration()
	c.metrics.RecordAnswer(string(env.Source), env.Degraded, latency)
	reqCtx.Info(ctx, "answer composed",
		slog.String("question", clip(question, timeout.MaxTruncateLength)),
		slog.String(observability.LogFieldIntent, string(cls.Intent)),
		slog.String(observability.LogFieldSource, string(env.Source)),
		slog.Float64(observability.LogFieldConfidence, env.Confidence),
		slog.Int("documents", len(env.Documents)),
		slog.Bool("degraded", env.Degraded),
		slog.String(observability.LogFieldErrorCode, env.ErrorCode),
		slog.Int64(observability.LogFieldDuration, latency.Milliseconds()),
	)

	if c.dispatcher != nil {
		if !c.dispatcher.Dispatch(ctx, conversation.Event{
			RequestID:   env.RequestID,
			Question:    question,
			Answer:      env.Answer,
			Source:      string(env.Source),
			Confidence:  env.Confidence,
			Language:    env.Language,
			Intent:      string(cls.Intent),
			DocumentIDs: env.Documents,
			Degraded:    env.Degraded,
			ErrorCode:   env.ErrorCode,
			Latency:     latency,
		}) {
			c.metrics.RecordLogDropped()
		}
	}
	return env
}

// responseLanguage is the declared language, else candidate, else the default.
func (c *Controller) responseLanguage(declared, candidate store.Language) store.Language {
	if declared != "" {
		return declared
	}
	if _, ok := store.ParseLanguage(string(candidate)); ok {
		return candidate
	}
	return c.config.DefaultLanguage
}

func errorCode(err error) string {
	return string(ai.GetCodeFromError(err, ai.ErrCodeUpstreamUnavailable))
}
