package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timebank/backoffice/internal/logging"
	"github.com/timebank/backoffice/internal/models"
)

type fakeReconciler struct {
	mismatches []models.Reconciliation
	err        error
	calls      int
}

func (f *fakeReconciler) Reconcile(context.Context) ([]models.Reconciliation, error) {
	f.calls++
	return f.mismatches, f.err
}

func TestNewReconcileTask(t *testing.T) {
	task, err := NewReconcileTask(TriggerSchedule)
	require.NoError(t, err)
	assert.Equal(t, TaskLedgerReconcile, task.Type())
	assert.JSONEq(t, `{"trigger":"schedule"}`, string(task.Payload()))
}

func TestReconcileHandler(t *testing.T) {
	ctx := context.Background()
	task, err := NewReconcileTask(TriggerSchedule)
	require.NoError(t, err)

	t.Run("logs every mismatch at error level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewWithWriter(&buf, "json", "info")
		reconciler := &fakeReconciler{mismatches: []models.Reconciliation{{
			AccountNo:      1000000001,
			StoredBalance:  decimal.RequireFromString("900"),
			OpeningBalance: decimal.RequireFromString("1000"),
			Deposits:       decimal.Zero,
			Withdrawals:    decimal.Zero,
		}}}

		require.NoError(t, ReconcileHandler(reconciler, logger)(ctx, task))
		assert.Equal(t, 1, reconciler.calls)
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
		assert.Contains(t, buf.String(), `"account_no":1000000001`)
		assert.Contains(t, buf.String(), `"expected":"1000.00"`)
	})

	t.Run("each run logs its own start time", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewWithWriter(&buf, "json", "info")
		clock := []time.Time{
			time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC),
		}
		calls := 0
		handler := reconcileHandler(&fakeReconciler{}, logger, func() time.Time {
			now := clock[calls]
			calls++
			return now
		})

		require.NoError(t, handler(ctx, task))
		require.NoError(t, handler(ctx, task))

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 2)
		for i, line := range lines {
			var entry map[string]any
			require.NoError(t, json.Unmarshal(line, &entry))
			assert.Equal(t, "schedule", entry["trigger"])
			assert.Equal(t, clock[i].Format(time.RFC3339), entry["started_at"])
		}
	})

	t.Run("store failures are retried", func(t *testing.T) {
		reconciler := &fakeReconciler{err: errors.New("connection reset")}
		err := ReconcileHandler(reconciler, logging.Discard())(ctx, task)
		assert.ErrorContains(t, err, "connection reset")
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("corrupt payload is not retried", func(t *testing.T) {
		reconciler := &fakeReconciler{}
		bad := asynq.NewTask(TaskLedgerReconcile, []byte("{"))
		err := ReconcileHandler(reconciler, logging.Discard())(ctx, bad)
		assert.ErrorIs(t, err, asynq.SkipRetry)
		assert.Zero(t, reconciler.calls)
	})
}

func TestNewMux(t *testing.T) {
	reconciler := &fakeReconciler{}
	mux := newMux(reconciler, logging.Discard())

	task, err := NewReconcileTask(TriggerStartup)
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))
	assert.Equal(t, 1, reconciler.calls)

	err = mux.ProcessTask(context.Background(), asynq.NewTask("unknown:task", nil))
	assert.Error(t, err)
}
