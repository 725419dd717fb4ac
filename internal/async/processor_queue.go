package async

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ProcessorQueue runs scoring tasks on a fixed pool of in-process workers.
type ProcessorQueue struct {
	handler     Handler
	logger      *slog.Logger
	recorder    Recorder
	workers     int
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration

	ch   chan ScoringTask
	wg   sync.WaitGroup
	once sync.Once
	quit chan struct{}

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan ScoringTask, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithRetry sets the total attempts per task and the base delay, doubled per retry.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(q *ProcessorQueue) {
		if maxAttempts > 0 {
			q.maxAttempts = maxAttempts
		}
		if backoff >= 0 {
			q.backoff = backoff
		}
	}
}

func WithRecorder(r Recorder) Option { return func(q *ProcessorQueue) { q.recorder = r } }

func NewProcessorQueue(h Handler, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		handler:     h,
		logger:      logger,
		workers:     2,
		timeout:     30 * time.Second,
		maxAttempts: 3,
		backoff:     time.Second,
		ch:          make(chan ScoringTask, 256),
		quit:        make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("scoring.worker.started", "worker_id", workerID)
				for task := range q.ch {
					select {
					case <-q.quit:
						q.logger.Warn("scoring.task.dropped", "ticket_id", task.TicketID)
						q.record("failed")
						continue
					default:
					}
					q.run(workerID, task)
				}
				q.logger.Debug("scoring.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, task ScoringTask) {
	delay := q.backoff
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := q.handler.HandleScoring(ctx, task)
		cancel()
		if err == nil {
			q.logger.Info("scoring.task.ok", "worker_id", workerID, "ticket_id", task.TicketID, "attempt", attempt)
			q.record("ok")
			return
		}
		if attempt >= q.maxAttempts {
			q.logger.Error("scoring.task.failed", "worker_id", workerID, "ticket_id", task.TicketID, "attempts", attempt, "err", err)
			q.record("failed")
			return
		}
		q.logger.Warn("scoring.task.retry", "worker_id", workerID, "ticket_id", task.TicketID, "attempt", attempt, "err", err)
		q.record("retry")
		select {
		case <-time.After(delay):
		case <-q.quit:
			q.logger.Warn("scoring.task.abandoned", "ticket_id", task.TicketID, "attempt", attempt)
			q.record("failed")
			return
		}
		delay *= 2
	}
}

func (q *ProcessorQueue) record(outcome string) {
	if q.recorder != nil {
		q.recorder.RecordScoringTask(outcome)
	}
}

// DispatchScoring never blocks: a full queue rejects the task.
func (q *ProcessorQueue) DispatchScoring(_ context.Context, task ScoringTask) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- task:
		q.logger.Debug("scoring.task.queued", "ticket_id", task.TicketID)
		return nil
	default:
		q.logger.Warn("scoring.queue.full", "ticket_id", task.TicketID, "capacity", cap(q.ch))
		return ErrQueueFull
	}
}

// Shutdown stops intake, cancels pending retry waits and waits for workers until ctx ends.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-done:
		q.logger.Info("scoring queue drained, shutdown complete")
	case <-ctx.Done():
		close(q.quit)
		<-done
		q.logger.Warn("scoring queue shutdown interrupted by context")
	}
}
