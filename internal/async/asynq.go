package async

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TypeScoreTicket is the asynq task type for ticket scoring.
const TypeScoreTicket = "ticket:score"

type AsynqConfig struct {
	RedisURL    string
	Queue       string
	Concurrency int
	MaxRetry    int
	Timeout     time.Duration
}

// NewScoringTask builds the asynq task for t. The ticket id doubles as the task id so a
// ticket is never queued twice.
func NewScoringTask(t ScoringTask, cfg AsynqConfig) (*asynq.Task, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode scoring task: %w", err)
	}
	opts := []asynq.Option{asynq.TaskID(TypeScoreTicket + ":" + t.TicketID.String())}
	if cfg.Queue != "" {
		opts = append(opts, asynq.Queue(cfg.Queue))
	}
	if cfg.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(cfg.MaxRetry))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, asynq.Timeout(cfg.Timeout))
	}
	return asynq.NewTask(TypeScoreTicket, payload, opts...), nil
}

// AsynqDispatcher enqueues scoring tasks on Redis for ticket-worker.
type AsynqDispatcher struct {
	client *asynq.Client
	cfg    AsynqConfig
	logger *slog.Logger
}

func NewAsynqDispatcher(cfg AsynqConfig, logger *slog.Logger) (*AsynqDispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &AsynqDispatcher{client: asynq.NewClient(opt), cfg: cfg, logger: logger}, nil
}

func (d *AsynqDispatcher) DispatchScoring(ctx context.Context, t ScoringTask) error {
	task, err := NewScoringTask(t, d.cfg)
	if err != nil {
		return err
	}
	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue scoring task: %w", err)
	}
	d.logger.Debug("scoring.task.enqueued", "ticket_id", t.TicketID, "task_id", info.ID, "queue", info.Queue)
	return nil
}

func (d *AsynqDispatcher) Close() error { return d.client.Close() }

// Consumer runs an asynq server that hands scoring tasks to a Handler.
type Consumer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

func NewConsumer(cfg AsynqConfig, h Handler, rec Recorder, logger *slog.Logger) (*Consumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if h == nil {
		return nil, fmt.Errorf("scoring handler is required")
	}
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "default"
	}
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency:    cfg.Concurrency,
		Queues:         map[string]int{queue: 1},
		RetryDelayFunc: retryDelay,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			outcome := "retry"
			if retried >= maxRetry {
				outcome = "failed"
			}
			if rec != nil {
				rec.RecordScoringTask(outcome)
			}
			logger.Error("scoring.task.failed", "type", task.Type(), "retried", retried, "max_retry", maxRetry, "err", err)
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeScoreTicket, handleScoreTask(h, rec, logger))
	return &Consumer{server: server, mux: mux, logger: logger}, nil
}

// retryDelay backs off exponentially from 5s, capped at a minute.
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	delay := time.Duration(5*(1<<uint(n))) * time.Second
	if delay > time.Minute || delay <= 0 {
		delay = time.Minute
	}
	return delay
}

func handleScoreTask(h Handler, rec Recorder, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, task *asynq.Task) error {
		var t ScoringTask
		if err := json.Unmarshal(task.Payload(), &t); err != nil {
			// malformed payloads never succeed on retry
			return fmt.Errorf("decode scoring task: %v: %w", err, asynq.SkipRetry)
		}
		start := time.Now()
		if err := h.HandleScoring(ctx, t); err != nil {
			return err
		}
		if rec != nil {
			rec.RecordScoringTask("ok")
		}
		logger.Info("scoring.task.ok", "ticket_id", t.TicketID, "elapsed_ms", time.Since(start).Milliseconds())
		return nil
	}
}

// Run blocks until the server stops.
func (c *Consumer) Run() error {
	c.logger.Info("scoring consumer starting")
	return c.server.Run(c.mux)
}

func (c *Consumer) Shutdown() {
	c.server.Shutdown()
	c.logger.Info("scoring consumer stopped")
}
