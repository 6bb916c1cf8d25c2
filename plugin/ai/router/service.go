package router

import (
	"context"
	"log/slog"

	"github.com/omadigital23/assistant/server/queryengine"
)

// Service classifies normalized queries with the rule matcher.
type Service struct {
	ruleMatcher *RuleMatcher
}

// NewService creates a router service over the default trigger table.
func NewService() *Service {
	return &Service{ruleMatcher: NewRuleMatcher(DefaultTriggers)}
}

// NewServiceWithTriggers creates a router service over a custom trigger table.
func NewServiceWithTriggers(triggers TriggerTable) *Service {
	return &Service{ruleMatcher: NewRuleMatcher(triggers)}
}

// Classify returns the intent of q with its confidence in [0,1].
func (s *Service) Classify(ctx context.Context, q *queryengine.NormalizedQuery) Classification {
	c := s.ruleMatcher.Match(q)
	slog.DebugContext(ctx, "intent classified",
		"input", truncate(q.Text, 50),
		"intent", c.Intent,
		"confidence", c.Confidence,
		"price_query", c.PriceQuery)
	return c
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
