package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/timebank/backoffice/internal/models"
)

const (
	// QueueDefault is the only queue the back office uses.
	QueueDefault = "default"
	// TaskLedgerReconcile recomputes every balance from the transaction log.
	TaskLedgerReconcile = "ledger:reconcile"
)

// Reconcile triggers.
const (
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
)

// Reconciler returns the accounts whose stored balance disagrees with the log.
type Reconciler interface {
	Reconcile(ctx context.Context) ([]models.Reconciliation, error)
}

// ReconcilePayload says what asked for the run. The scheduler re-enqueues the
// same task every tick, so the payload carries nothing time dependent.
type ReconcilePayload struct {
	Trigger string `json:"trigger"`
}

// NewReconcileTask constructs an Asynq task for a ledger reconciliation run.
func NewReconcileTask(trigger string) (*asynq.Task, error) {
	body, err := json.Marshal(ReconcilePayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// ReconcileHandler runs reconciliation and reports every mismatch at error level.
func ReconcileHandler(reconciler Reconciler, logger *slog.Logger) asynq.HandlerFunc {
	return reconcileHandler(reconciler, logger, time.Now)
}

func reconcileHandler(reconciler Reconciler, logger *slog.Logger, now func() time.Time) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReconcilePayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return fmt.Errorf("decode %s payload: %v: %w", TaskLedgerReconcile, err, asynq.SkipRetry)
			}
		}

		startedAt := now().UTC()
		mismatches, err := reconciler.Reconcile(ctx)
		if err != nil {
			return fmt.Errorf("reconcile ledger: %w", err)
		}

		for _, m := range mismatches {
			logger.Error("ledger mismatch",
				slog.Int64("account_no", m.AccountNo),
				slog.String("stored", m.StoredBalance.StringFixed(2)),
				slog.String("expected", m.Expected().StringFixed(2)),
			)
		}
		logger.Info("reconciliation finished",
			slog.Int("mismatches", len(mismatches)),
			slog.String("trigger", payload.Trigger),
			slog.Time("started_at", startedAt),
		)
		return nil
	}
}
