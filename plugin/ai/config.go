package ai

import (
	"time"

	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/internal/profile"
	"github.com/omadigital23/assistant/store"
)

// LLMConfig represents the generative model configuration.
type LLMConfig struct {
	BaseURL string // https://api.openai.com/v1 or any compatible gateway
	Model   string // gpt-4o-mini
	APIKey  string
	// TokenSecret, when set, signs short-lived bearer tokens instead of sending APIKey.
	TokenSecret string
	TokenTTL    time.Duration

	MaxTokens   int     // default: 400
	Temperature float32 // default: 0.3

	MaxAttempts       int           // default: 6
	BaseDelay         time.Duration // default: 500ms
	MaxDelay          time.Duration // default: 20s
	RequestsPerSecond float64       // default: 5, <= 0 disables pacing
	BreakerThreshold  int           // default: 5
	BreakerCooldown   time.Duration // default: 30s

	MaxSentences     int            // default: 4
	FallbackLanguage store.Language // used when the model names no language
}

// Enabled reports whether a credential is configured.
func (c *LLMConfig) Enabled() bool {
	return c.APIKey != "" || c.TokenSecret != ""
}

// NewLLMConfigFromProfile creates the generative model config from profile.
func NewLLMConfigFromProfile(p *profile.Profile) *LLMConfig {
	fallback, ok := store.ParseLanguage(p.DefaultLanguage)
	if !ok {
		fallback = store.LanguageFrench
	}
	return &LLMConfig{
		BaseURL:           p.LLMBaseURL,
		Model:             p.LLMModel,
		APIKey:            p.LLMAPIKey,
		TokenSecret:       p.LLMTokenSecret,
		TokenTTL:          p.LLMTokenTTL,
		MaxTokens:         400,
		Temperature:       0.3,
		MaxAttempts:       p.LLMMaxAttempts,
		BaseDelay:         p.LLMBaseDelay,
		MaxDelay:          p.LLMMaxDelay,
		RequestsPerSecond: p.LLMRPS,
		BreakerThreshold:  p.LLMBreakerThreshold,
		BreakerCooldown:   p.LLMBreakerCooldown,
		MaxSentences:      p.LLMMaxSentences,
		FallbackLanguage:  fallback,
	}
}

// Validate validates the configuration.
func (c *LLMConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.MaxAttempts < 1 {
		return errors.Errorf("LLM max attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.BaseDelay <= 0 {
		return errors.New("LLM base delay must be positive")
	}
	if c.MaxDelay > 0 && c.MaxDelay < c.BaseDelay {
		return errors.New("LLM max delay must not be below the base delay")
	}
	if c.TokenSecret != "" && len(c.TokenSecret) < MinTokenSecretLength {
		return errors.Errorf("LLM token secret must be at least %d bytes", MinTokenSecretLength)
	}
	if _, ok := store.ParseLanguage(string(c.FallbackLanguage)); !ok {
		return errors.Errorf("unsupported fallback language %q", c.FallbackLanguage)
	}
	return nil
}
