package queryengine

import (
	"fmt"
)

// Config bounds the work a single normalized query can cause downstream.
type Config struct {
	QueryLimits QueryLimitsConfig `json:"queryLimits" yaml:"queryLimits"`
}

// QueryLimitsConfig holds the normalizer limits.
type QueryLimitsConfig struct {
	// Input beyond this many characters is ignored.
	MaxQueryLength int `json:"maxQueryLength" yaml:"maxQueryLength"`
	// Tokens shorter than this many characters are dropped.
	MinTokenLength int `json:"minTokenLength" yaml:"minTokenLength"`
	// Cap on the expanded keyword set.
	MaxKeywords int `json:"maxKeywords" yaml:"maxKeywords"`
}

// DefaultConfig returns the default limits.
func DefaultConfig() *Config {
	return &Config{
		QueryLimits: QueryLimitsConfig{
			MaxQueryLength: 500,
			MinTokenLength: 3,
			MaxKeywords:    15,
		},
	}
}

// ValidateConfig checks that every limit is within a sane range.
func ValidateConfig(config *Config) error {
	if config.QueryLimits.MaxQueryLength < 10 || config.QueryLimits.MaxQueryLength > 10000 {
		return ErrInvalidConfig{Field: "QueryLimits.MaxQueryLength", Value: config.QueryLimits.MaxQueryLength}
	}
	if config.QueryLimits.MinTokenLength < 1 || config.QueryLimits.MinTokenLength > 10 {
		return ErrInvalidConfig{Field: "QueryLimits.MinTokenLength", Value: config.QueryLimits.MinTokenLength}
	}
	if config.QueryLimits.MaxKeywords < 1 || config.QueryLimits.MaxKeywords > 100 {
		return ErrInvalidConfig{Field: "QueryLimits.MaxKeywords", Value: config.QueryLimits.MaxKeywords}
	}
	return nil
}

// ErrInvalidConfig reports an out-of-range config field.
type ErrInvalidConfig struct {
	Field string
	Value interface{}
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config field '%s': %v", e.Field, e.Value)
}
