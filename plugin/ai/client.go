// Package ai is the generative completion client: an OpenAI-compatible chat
// transport with quota-aware retries, a circuit breaker and answer post-processing.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/omadigital23/assistant/store"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: openai.ChatMessageRoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: openai.ChatMessageRoleUser, Content: content}
}

// Completion is a parsed model answer.
type Completion struct {
	// Text has its language tag stripped and is capped in sentences.
	Text string
	// Language is the tagged language, or the fallback when the tag was absent.
	Language store.Language
	// Attempts counts provider calls, retries included.
	Attempts int
}

// Completer is what the answer controller needs from a generative model.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}

// Client calls an OpenAI-compatible chat endpoint. It is safe for concurrent use.
type Client struct {
	client  *openai.Client
	config  *LLMConfig
	backoff Backoff
	limiter *rate.Limiter
	breaker *CircuitBreaker
	sleep   Sleeper
	logger  *slog.Logger
}

var _ Completer = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSleeper replaces the backoff sleep.
func WithSleeper(s Sleeper) ClientOption {
	return func(c *Client) { c.sleep = s }
}

// WithJitter replaces the random backoff jitter.
func WithJitter(fn func(limit time.Duration) time.Duration) ClientOption {
	return func(c *Client) { c.backoff.Jitter = fn }
}

// WithBreakerClock sets the clock of the circuit breaker.
func WithBreakerClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.breaker.now = now }
}

// WithClientLogger sets the logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client. Requests carry a bearer credential from
// NewTokenSource, refreshed by the transport whenever it has expired.
func NewClient(cfg *LLMConfig, opts ...ClientOption) (*Client, error) {
	if !cfg.Enabled() {
		return nil, &AIError{Code: ErrCodeDisabled, Message: "no LLM credential configured"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig("")
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &oauth2.Transport{Source: NewTokenSource(cfg), Base: http.DefaultTransport},
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}

	c := &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
		backoff: Backoff{Base: cfg.BaseDelay, Max: cfg.MaxDelay},
		limiter: limiter,
		breaker: NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown, nil),
		sleep:   sleepContext,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BreakerState exposes the circuit breaker state.
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}

// attemptResult is the typed outcome of one provider call.
type attemptResult struct {
	text  string
	err   error
	class ErrorClass
}

func (c *Client) attempt(ctx context.Context, req openai.ChatCompletionRequest) attemptResult {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return attemptResult{err: err, class: ClassifyError(err)}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return attemptResult{
			err:   &AIError{Code: ErrCodeEmptyResponse, Message: "provider returned no content"},
			class: ErrorClassFatal,
		}
	}
	return attemptResult{text: resp.Choices[0].Message.Content}
}

// Complete sends messages and returns the parsed answer. Quota signals are
// retried with exponential backoff up to MaxAttempts; any other failure
// returns at once. Errors are always *AIError.
func (c *Client) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	if !c.breaker.Allow() {
		return nil, &AIError{Code: ErrCodeCircuitOpen, Message: "generative client is failing fast"}
	}

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    convertMessages(messages),
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff.Delay(attempt - 1)
			c.logger.InfoContext(ctx, "retrying completion after rate limit",
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
			)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, c.interrupted(ctx, err, attempt)
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.interrupted(ctx, err, attempt)
		}

		n := attempt + 1
		result := c.attempt(ctx, req)
		if result.err == nil {
			c.breaker.RecordSuccess()
			lang, text := ParseLanguageTag(result.text, c.config.FallbackLanguage)
			return &Completion{
				Text:     TruncateSentences(text, c.config.MaxSentences),
				Language: lang,
				Attempts: n,
			}, nil
		}

		lastErr = result.err
		if ctx.Err() != nil {
			return nil, c.interrupted(ctx, ctx.Err(), n)
		}
		if result.class == ErrorClassFatal {
			c.breaker.RecordFailure()
			c.logger.WarnContext(ctx, "completion failed",
				slog.Int("attempt", n),
				slog.Int("status", StatusCode(result.err)),
				slog.String("error", result.err.Error()),
			)
			return nil, Wrap(result.err, codeFor(result.err), "completion failed").WithContext("attempts", n)
		}
		c.logger.DebugContext(ctx, "completion rate limited", slog.Int("attempt", n))
	}

	c.breaker.RecordFailure()
	return nil, Wrap(lastErr, ErrCodeUpstreamUnavailable,
		fmt.Sprintf("rate limited on all %d attempts", c.config.MaxAttempts),
	).WithContext("attempts", c.config.MaxAttempts)
}

// interrupted reports a completion stopped by the caller's context. The
// breaker does not count it against the provider.
func (c *Client) interrupted(ctx context.Context, err error, attempts int) error {
	c.breaker.Release()
	code := codeFor(err)
	if ctx.Err() == nil {
		// rate.Limiter refuses waits that would outlive the deadline.
		code = ErrCodeTimeout
	}
	return Wrap(err, code, "completion interrupted").WithContext("attempts", attempts)
}

// AttemptsFromError returns how many provider calls a failed completion made.
func AttemptsFromError(err error) int {
	var aiErr *AIError
	if !asAIError(err, &aiErr) {
		return 0
	}
	n, _ := aiErr.Context["attempts"].(int)
	return n
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := m.Role
		switch role {
		case openai.ChatMessageRoleSystem, openai.ChatMessageRoleAssistant:
		default:
			role = openai.ChatMessageRoleUser
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}
