// Package conversation records answered questions off the request path.
package conversation

import (
	"context"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/plugin/ai/timeout"
	"github.com/omadigital23/assistant/store"
)

// DefaultPoolSize bounds the number of conversation logs written concurrently.
const DefaultPoolSize = 8

// Event is one finalized answer.
type Event struct {
	RequestID   string
	Question    string
	Answer      string
	Source      string
	Confidence  float64
	Language    store.Language
	Intent      string
	DocumentIDs []string
	Degraded    bool
	ErrorCode   string
	Latency     time.Duration
}

// Recorder persists conversation logs. *store.Store satisfies it.
type Recorder interface {
	CreateConversationLog(ctx context.Context, create *store.ConversationLog) (*store.ConversationLog, error)
}

// Dispatcher writes events on a bounded, non-blocking worker pool. Dispatch
// never waits: when every worker is busy the event is dropped.
type Dispatcher struct {
	recorder Recorder
	pool     *ants.Pool
	timeout  time.Duration
	onDrop   func()
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds a single write.
func WithTimeout(d time.Duration) Option {
	return func(d2 *Dispatcher) {
		if d > 0 {
			d2.timeout = d
		}
	}
}

// WithDropHook is called for every event that could not be queued.
func WithDropHook(fn func()) Option {
	return func(d *Dispatcher) { d.onDrop = fn }
}

// NewDispatcher creates a dispatcher with size workers.
func NewDispatcher(recorder Recorder, size int, opts ...Option) (*Dispatcher, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create conversation pool")
	}
	d := &Dispatcher{
		recorder: recorder,
		pool:     pool,
		timeout:  timeout.ConversationLogTimeout,
		onDrop:   func() {},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch queues e for writing and reports whether it was accepted. The
// write outlives ctx's cancellation but keeps its values.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) bool {
	ctx = context.WithoutCancel(ctx)
	if err := d.pool.Submit(func() { d.write(ctx, e) }); err != nil {
		d.onDrop()
		slog.WarnContext(ctx, "conversation log dropped", slog.String("error", err.Error()))
		return false
	}
	return true
}

func (d *Dispatcher) write(ctx context.Context, e Event) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "conversation log panicked", slog.Any("panic", r))
		}
	}()

	_, err := d.recorder.CreateConversationLog(ctx, &store.ConversationLog{
		UID:         shortuuid.New(),
		Question:    e.Question,
		Answer:      e.Answer,
		Source:      e.Source,
		Confidence:  e.Confidence,
		Language:    e.Language,
		Intent:      e.Intent,
		DocumentIDs: e.DocumentIDs,
		Degraded:    e.Degraded,
		ErrorCode:   e.ErrorCode,
		LatencyMs:   e.Latency.Milliseconds(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record conversation",
			slog.String("request_id", e.RequestID),
			slog.String("error", err.Error()),
		)
	}
}

// Running is the number of live workers.
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Close waits up to wait for in-flight writes, then releases the pool.
func (d *Dispatcher) Close(wait time.Duration) error {
	if wait <= 0 {
		d.pool.Release()
		return nil
	}
	return d.pool.ReleaseTimeout(wait)
}
