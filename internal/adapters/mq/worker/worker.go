// Package worker drains the audit queue and records decisions into the
// audit trail off the assignment request path.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/pitcrew/internal/adapters/mq/queue"
	"github.com/okian/pitcrew/internal/domain/model"
	"github.com/okian/pitcrew/pkg/logger"
	"github.com/okian/pitcrew/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Decision is what workers read off the queue.
type Decision = model.AssignmentDecision

// Recorder persists decisions pulled from the queue.
type Recorder interface {
	Record(ctx context.Context, d Decision)
}

// Queue defines how workers receive decisions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Decision
}

// Worker consumes decisions and hands them to the recorder.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// AuditWorker implements Worker for recording decisions.
type AuditWorker struct {
	queue    Queue
	recorder Recorder
	name     string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewAuditWorker creates a new worker with configuration options.
func NewAuditWorker(q Queue, recorder Recorder, opts ...Option) *AuditWorker {
	w := &AuditWorker{
		queue:    q,
		recorder: recorder,
		name:     "audit-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("audit-worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "audit-worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *AuditWorker) Run(ctx context.Context) {
	defer close(w.done)

	decisions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case d, ok := <-decisions:
			if !ok {
				// Channel closed, worker should stop
				return
			}
			w.record(ctx, d)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *AuditWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// record hands one decision to the recorder and tracks latency.
func (w *AuditWorker) record(ctx context.Context, d queue.Decision) {
	start := time.Now()
	w.recorder.Record(ctx, d)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordDecisionAudited()

	w.logger.Debug(ctx, "decision audited",
		logger.String("decisionID", d.ID),
		logger.String("technicianID", d.Chosen.TechnicianID),
	)
}

// Pool manages multiple audit workers.
type Pool struct {
	workers  []*AuditWorker
	queue    Queue
	recorder Recorder

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &Pool{
		workers:  make([]*AuditWorker, workerCount),
		queue:    q,
		recorder: recorder,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("audit-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewAuditWorker(
			q,
			recorder,
			WithName("audit-worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool, closing the
// queue first so no new decisions arrive.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
