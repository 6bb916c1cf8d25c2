package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assistantEnvVars = []string{
	"ASSISTANT_DEFAULT_LANGUAGE",
	"ASSISTANT_LLM_BASE_URL",
	"ASSISTANT_LLM_MODEL",
	"ASSISTANT_LLM_API_KEY",
	"ASSISTANT_LLM_TOKEN_SECRET",
	"ASSISTANT_LLM_MAX_ATTEMPTS",
	"ASSISTANT_LLM_BASE_DELAY",
	"ASSISTANT_CACHE_CAPACITY",
	"ASSISTANT_CACHE_TTL",
}

func clearEnv(t *testing.T) {
	for _, key := range assistantEnvVars {
		t.Setenv(key, "")
	}
}

func TestProfileDefaults(t *testing.T) {
	clearEnv(t)

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "fr", p.DefaultLanguage)
	assert.Equal(t, "https://api.openai.com/v1", p.LLMBaseURL)
	assert.Equal(t, 6, p.LLMMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, p.LLMBaseDelay)
	assert.Equal(t, 100, p.CacheCapacity)
	assert.Equal(t, 5*time.Minute, p.CacheTTL)
	assert.Equal(t, 3*time.Second, p.RetrievalTimeout)
	assert.Equal(t, 5, p.DefaultLimit)
	assert.False(t, p.IsLLMEnabled())
}

func TestProfileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSISTANT_LLM_API_KEY", "sk-test")
	t.Setenv("ASSISTANT_LLM_MAX_ATTEMPTS", "7")
	t.Setenv("ASSISTANT_CACHE_TTL", "90s")
	t.Setenv("ASSISTANT_CACHE_CAPACITY", "not-a-number")

	p := &Profile{}
	p.FromEnv()

	assert.True(t, p.IsLLMEnabled())
	assert.Equal(t, 7, p.LLMMaxAttempts)
	assert.Equal(t, 90*time.Second, p.CacheTTL)
	assert.Equal(t, 100, p.CacheCapacity, "malformed value falls back to default")
}

func TestProfileFromEnv_KeepsExplicitValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSISTANT_LLM_MODEL", "from-env")

	p := &Profile{LLMModel: "from-flag"}
	p.FromEnv()

	assert.Equal(t, "from-flag", p.LLMModel)
}

func TestProfileValidate(t *testing.T) {
	clearEnv(t)

	t.Run("sqlite gets a dsn in the data dir", func(t *testing.T) {
		p := &Profile{Mode: "dev", Driver: "sqlite", Data: t.TempDir()}
		p.FromEnv()
		require.NoError(t, p.Validate())
		assert.Contains(t, p.DSN, "assistant_dev.db")
	})

	t.Run("postgres requires a dsn", func(t *testing.T) {
		p := &Profile{Mode: "prod", Driver: "postgres"}
		p.FromEnv()
		assert.Error(t, p.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		p := &Profile{Driver: "mysql"}
		p.FromEnv()
		assert.Error(t, p.Validate())
	})

	t.Run("unknown mode falls back to demo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Driver: "postgres", DSN: "postgres://localhost/x"}
		p.FromEnv()
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})
}
