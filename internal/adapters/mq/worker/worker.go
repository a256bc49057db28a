// Package worker folds completed session results into player records.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/tally/internal/adapters/mq/queue"
	"github.com/okian/tally/internal/domain/dedupe"
	"github.com/okian/tally/pkg/logger"
	"github.com/okian/tally/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Recorder counts one played game per player, and a win for the winner. A
// failed call must leave every record untouched.
type Recorder interface {
	RecordResults(ctx context.Context, players []string, winner string) error
}

// Queue defines how workers receive results.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Result
}

// Worker processes results until its queue closes.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	recorder Recorder
	deduper  dedupe.Deduper
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.deduper == nil {
		w.deduper = dedupe.NewInMemoryDeduper()
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	results := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-results:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "error processing result", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for it to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process records a result once per session. A failed result is forgotten
// by the deduper so a retry can apply it.
func (w *InMemoryWorker) process(ctx context.Context, r queue.Result) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if w.deduper.SeenAndRecord(ctx, r.SessionID) {
		metrics.RecordResultDuplicate()
		w.logger.Debug(ctx, "duplicate result skipped", logger.String("sessionID", r.SessionID))
		return nil
	}

	if err := w.recorder.RecordResults(ctx, r.Players, r.Winner); err != nil {
		w.deduper.Unrecord(ctx, r.SessionID)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		return fmt.Errorf("record result of session %s: %w", r.SessionID, err)
	}

	metrics.RecordResultProcessed()
	w.logger.Debug(ctx, "result recorded",
		logger.String("sessionID", r.SessionID),
		logger.String("winner", r.Winner),
		logger.Int("players", len(r.Players)),
	)
	return nil
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers sharing one deduper: the one passed with
// WithDeduper, or a fresh in-memory one. A count below one means one worker
// per CPU.
func NewPool(workerCount int, q Queue, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	var base InMemoryWorker
	for _, opt := range opts {
		opt(&base)
	}
	shared := base.deduper
	if shared == nil {
		shared = dedupe.NewInMemoryDeduper()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithDeduper(shared)}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(q, recorder, wopts...)
	}
	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
