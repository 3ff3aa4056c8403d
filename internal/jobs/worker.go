package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Worker processes reconciliation tasks and, when given a cron spec, schedules them.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

func newMux(reconciler Reconciler, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskLedgerReconcile, ReconcileHandler(reconciler, logger))
	return mux
}

// NewWorker builds the worker. An empty cronSpec leaves reconciliation to explicit enqueues.
func NewWorker(redisOpts asynq.RedisClientOpt, reconciler Reconciler, cronSpec string, logger *slog.Logger) (*Worker, error) {
	w := &Worker{
		server: asynq.NewServer(redisOpts, asynq.Config{
			Concurrency: 1,
			Queues:      map[string]int{QueueDefault: 1},
		}),
		mux:    newMux(reconciler, logger),
		logger: logger,
	}
	if cronSpec == "" {
		return w, nil
	}

	task, err := NewReconcileTask(TriggerSchedule)
	if err != nil {
		return nil, err
	}
	w.scheduler = asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := w.scheduler.Register(cronSpec, task); err != nil {
		return nil, err
	}
	return w, nil
}

// Run processes tasks until ctx is cancelled or the server fails.
func (w *Worker) Run(ctx context.Context) error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() { errCh <- w.server.Run(w.mux) }()
	w.logger.Info("worker started", slog.Bool("scheduled", w.scheduler != nil))

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errCh:
	}
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	w.server.Shutdown()
	w.logger.Info("worker stopped")
	return err
}

// Client submits reconciliation runs to the queue.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueReconcile asks the worker for an immediate reconciliation run.
func (c *Client) EnqueueReconcile(ctx context.Context, trigger string) (*asynq.TaskInfo, error) {
	task, err := NewReconcileTask(trigger)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

func (c *Client) Close() error {
	return c.client.Close()
}
