// Package inventory keeps the local snapshot used when the store is unreachable.
package inventory

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/plugin/ai/rag"
	"github.com/omadigital23/assistant/plugin/ai/timeout"
	"github.com/omadigital23/assistant/store"
)

// DefaultInterval is the refresh period when none is configured.
const DefaultInterval = 10 * time.Minute

// Lister lists knowledge entries. *store.Store satisfies it.
type Lister interface {
	ListKnowledge(ctx context.Context, find *store.FindKnowledge) ([]*store.KnowledgeEntry, error)
}

// Runner periodically reloads the active entries into the inventory.
type Runner struct {
	lister    Lister
	inventory *rag.Inventory
	interval  time.Duration
}

// NewRunner creates an inventory runner.
func NewRunner(lister Lister, inventory *rag.Inventory, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		lister:    lister,
		inventory: inventory,
		interval:  interval,
	}
}

// Run refreshes once on startup, then every interval until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	if err := r.RunOnce(ctx); err != nil {
		slog.WarnContext(ctx, "initial inventory load failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				slog.WarnContext(ctx, "inventory refresh failed, keeping previous snapshot",
					slog.Int("size", r.inventory.Len()),
					slog.String("error", err.Error()),
				)
			}
		case <-ctx.Done():
			slog.Info("inventory runner stopped")
			return
		}
	}
}

// RunOnce replaces the snapshot with the active entries. On error the
// previous snapshot is kept.
func (r *Runner) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, timeout.InventoryLoadTimeout)
	defer cancel()

	entries, err := r.lister.ListKnowledge(ctx, &store.FindKnowledge{ActiveOnly: true})
	if err != nil {
		return errors.Wrap(err, "failed to list knowledge")
	}
	r.inventory.Replace(entries)
	slog.DebugContext(ctx, "inventory refreshed", slog.Int("size", r.inventory.Len()))
	return nil
}
