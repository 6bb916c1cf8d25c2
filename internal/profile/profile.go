package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/plugin/ai/timeout"
)

// Profile is the configuration to start the assistant.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where the knowledge base lives
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// DefaultLanguage answers when neither the caller nor the model names one.
	DefaultLanguage string
	// ContactLine is quoted by the apology answer when nothing else can be said.
	ContactLine string
	// BusinessName is how prompts refer to the business.
	BusinessName string

	// Generative model
	LLMBaseURL      string        // ASSISTANT_LLM_BASE_URL (default: https://api.openai.com/v1)
	LLMModel        string        // ASSISTANT_LLM_MODEL (default: gpt-4o-mini)
	LLMAPIKey       string        // ASSISTANT_LLM_API_KEY
	LLMTokenSecret  string        // ASSISTANT_LLM_TOKEN_SECRET, signs short-lived gateway tokens instead of a static key
	LLMTokenTTL     time.Duration // ASSISTANT_LLM_TOKEN_TTL (default: 10m)
	LLMMaxAttempts  int           // ASSISTANT_LLM_MAX_ATTEMPTS (default: 6)
	LLMBaseDelay    time.Duration // ASSISTANT_LLM_BASE_DELAY (default: 500ms)
	LLMMaxDelay     time.Duration // ASSISTANT_LLM_MAX_DELAY (default: 20s)
	LLMRPS          float64       // ASSISTANT_LLM_RPS (default: 5)
	LLMMaxSentences int           // ASSISTANT_LLM_MAX_SENTENCES (default: 4)

	LLMBreakerThreshold int           // ASSISTANT_LLM_BREAKER_THRESHOLD (default: 5)
	LLMBreakerCooldown  time.Duration // ASSISTANT_LLM_BREAKER_COOLDOWN (default: 30s)

	// Retrieval
	CacheCapacity     int           // ASSISTANT_CACHE_CAPACITY (default: 100)
	CacheTTL          time.Duration // ASSISTANT_CACHE_TTL (default: 5m)
	RetrievalTimeout  time.Duration // ASSISTANT_RETRIEVAL_TIMEOUT (default: 3s)
	AnswerTimeout     time.Duration // ASSISTANT_ANSWER_TIMEOUT (default: 25s)
	DefaultLimit      int           // ASSISTANT_DEFAULT_LIMIT (default: 5)
	InventoryInterval time.Duration // ASSISTANT_INVENTORY_INTERVAL (default: 10m)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true when a credential for the generative model is configured.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMTokenSecret != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("ignoring malformed integer env", slog.String("key", key), slog.String("value", value))
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		slog.Warn("ignoring malformed float env", slog.String("key", key), slog.String("value", value))
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("ignoring malformed duration env", slog.String("key", key), slog.String("value", value))
	}
	return defaultValue
}

// FromEnv loads the generative model and retrieval settings from ASSISTANT_* variables.
// Fields already set (by flags) are left untouched.
func (p *Profile) FromEnv() {
	setString := func(dst *string, key, def string) {
		if *dst == "" {
			*dst = getEnvOrDefault(key, def)
		}
	}
	setInt := func(dst *int, key string, def int) {
		if *dst == 0 {
			*dst = getIntEnvOrDefault(key, def)
		}
	}
	setDuration := func(dst *time.Duration, key string, def time.Duration) {
		if *dst == 0 {
			*dst = getDurationEnvOrDefault(key, def)
		}
	}

	setString(&p.DefaultLanguage, "ASSISTANT_DEFAULT_LANGUAGE", "fr")
	setString(&p.ContactLine, "ASSISTANT_CONTACT_LINE", "")
	setString(&p.BusinessName, "ASSISTANT_BUSINESS_NAME", "OMA Digital")

	setString(&p.LLMBaseURL, "ASSISTANT_LLM_BASE_URL", "https://api.openai.com/v1")
	setString(&p.LLMModel, "ASSISTANT_LLM_MODEL", "gpt-4o-mini")
	setString(&p.LLMAPIKey, "ASSISTANT_LLM_API_KEY", "")
	setString(&p.LLMTokenSecret, "ASSISTANT_LLM_TOKEN_SECRET", "")
	setDuration(&p.LLMTokenTTL, "ASSISTANT_LLM_TOKEN_TTL", 10*time.Minute)
	setInt(&p.LLMMaxAttempts, "ASSISTANT_LLM_MAX_ATTEMPTS", 6)
	setDuration(&p.LLMBaseDelay, "ASSISTANT_LLM_BASE_DELAY", 500*time.Millisecond)
	setDuration(&p.LLMMaxDelay, "ASSISTANT_LLM_MAX_DELAY", 20*time.Second)
	if p.LLMRPS == 0 {
		p.LLMRPS = getFloatEnvOrDefault("ASSISTANT_LLM_RPS", 5)
	}
	setInt(&p.LLMMaxSentences, "ASSISTANT_LLM_MAX_SENTENCES", 4)
	setInt(&p.LLMBreakerThreshold, "ASSISTANT_LLM_BREAKER_THRESHOLD", 5)
	setDuration(&p.LLMBreakerCooldown, "ASSISTANT_LLM_BREAKER_COOLDOWN", 30*time.Second)

	setInt(&p.CacheCapacity, "ASSISTANT_CACHE_CAPACITY", 100)
	setDuration(&p.CacheTTL, "ASSISTANT_CACHE_TTL", 5*time.Minute)
	setDuration(&p.RetrievalTimeout, "ASSISTANT_RETRIEVAL_TIMEOUT", timeout.RetrievalTimeout)
	setDuration(&p.AnswerTimeout, "ASSISTANT_ANSWER_TIMEOUT", timeout.AnswerTimeout)
	setInt(&p.DefaultLimit, "ASSISTANT_DEFAULT_LIMIT", 5)
	setDuration(&p.InventoryInterval, "ASSISTANT_INVENTORY_INTERVAL", 10*time.Minute)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		if p.Data == "" {
			p.Data = "."
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("assistant_%s.db", p.Mode))
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.LLMMaxAttempts < 1 {
		return errors.Errorf("llm max attempts must be positive, got %d", p.LLMMaxAttempts)
	}
	if p.LLMBaseDelay <= 0 {
		return errors.New("llm base delay must be positive")
	}
	if p.CacheCapacity <= 0 {
		return errors.Errorf("cache capacity must be positive, got %d", p.CacheCapacity)
	}
	if p.DefaultLimit <= 0 {
		p.DefaultLimit = 5
	}

	return nil
}
