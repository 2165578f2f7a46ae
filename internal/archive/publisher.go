package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	sessionmodels "callfile/internal/session/models"
	"callfile/pkg/requestcontext"
)

// Publisher hands archive entries to a Sink. In synchronous mode (the default)
// Publish blocks until the sink write finishes. With WithAsyncBuffer, Publish
// enqueues and a worker started by Run drains the queue.
type Publisher struct {
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics

	buffer  int
	queue   chan Entry
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	running sync.WaitGroup
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithAsyncBuffer switches the publisher to queued delivery with room for n entries.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.buffer = n
	}
}

func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:   sink,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.queue = make(chan Entry, p.buffer)
	}
	return p
}

// Archive builds an entry for the ended call and publishes it.
func (p *Publisher) Archive(ctx context.Context, callID string, summary json.RawMessage, sess *sessionmodels.CallSession) error {
	entry := Entry{
		ID:         uuid.New(),
		CallID:     callID,
		Summary:    summary,
		Session:    sess,
		ArchivedAt: requestcontext.Now(ctx),
	}
	if sess != nil {
		entry.Phone = sess.Phone
	}
	return p.Publish(ctx, entry)
}

func (p *Publisher) Publish(ctx context.Context, entry Entry) error {
	if err := entry.validate(); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ArchivedAt.IsZero() {
		entry.ArchivedAt = requestcontext.Now(ctx)
	}

	if p.queue == nil {
		return p.write(ctx, entry)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("archive publisher is closed")
	}
	select {
	case p.queue <- entry:
		p.metrics.setQueueDepth(len(p.queue))
		return nil
	default:
		p.metrics.observe("dropped")
		p.logger.WarnContext(ctx, "archive queue full, entry dropped", "call_id", entry.CallID)
		return fmt.Errorf("archive queue full")
	}
}

// Run drains the async queue until ctx is done or the publisher is closed.
// It returns immediately in synchronous mode.
func (p *Publisher) Run(ctx context.Context) error {
	if p.queue == nil {
		return nil
	}
	p.running.Add(1)
	defer p.running.Done()
	for {
		select {
		case <-ctx.Done():
			p.drain(context.WithoutCancel(ctx))
			return ctx.Err()
		case entry, ok := <-p.queue:
			if !ok {
				return nil
			}
			p.metrics.setQueueDepth(len(p.queue))
			_ = p.write(ctx, entry)
		}
	}
}

func (p *Publisher) drain(ctx context.Context) {
	for {
		select {
		case entry, ok := <-p.queue:
			if !ok {
				return
			}
			_ = p.write(ctx, entry)
		default:
			return
		}
	}
}

func (p *Publisher) write(ctx context.Context, entry Entry) error {
	start := time.Now()
	if err := p.sink.Write(ctx, entry); err != nil {
		p.metrics.observe("failed")
		p.logger.ErrorContext(ctx, "archive write failed",
			"call_id", entry.CallID,
			"error", err,
		)
		return fmt.Errorf("archive entry: %w", err)
	}
	p.metrics.observe("written")
	p.metrics.observeDuration(time.Since(start))
	return nil
}

// Close stops accepting entries, waits for the worker to flush the queue, and
// closes the sink.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.queue != nil {
		close(p.queue)
	}
	p.mu.Unlock()

	p.running.Wait()
	if p.queue != nil {
		p.drain(context.Background())
	}
	return p.sink.Close()
}
