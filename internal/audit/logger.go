package audit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types emitted by the back-office services.
const (
	EventAccountOpened = "ACCOUNT_OPENED"
	EventAccountStatus = "ACCOUNT_STATUS"
	EventDeposit       = "DEPOSIT"
	EventWithdrawal    = "WITHDRAWAL"
	EventHire          = "HIRE"
	EventFire          = "FIRE"
	EventMismatch      = "LEDGER_MISMATCH"
	EventError         = "ERROR"
)

type Event struct {
	ID        string
	Timestamp time.Time
	Type      string
	Subject   int64
	Amount    decimal.Decimal
	Status    string
	Details   map[string]string
}

// Logger writes one structured record per audited event.
type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger.With(slog.String("component", "audit")), now: time.Now}
}

func (a *Logger) LogMovement(ctx context.Context, eventType string, accountNo int64, amount, balance decimal.Decimal, txID int64) {
	a.log(ctx, Event{
		Type:    eventType,
		Subject: accountNo,
		Amount:  amount,
		Status:  "SUCCESS",
		Details: map[string]string{
			"balance":        balance.StringFixed(2),
			"transaction_id": strconv.FormatInt(txID, 10),
		},
	})
}

func (a *Logger) LogOperation(ctx context.Context, eventType string, subject int64, details map[string]string) {
	a.log(ctx, Event{
		Type:    eventType,
		Subject: subject,
		Status:  "SUCCESS",
		Details: details,
	})
}

func (a *Logger) LogError(ctx context.Context, operation string, subject int64, err error) {
	a.log(ctx, Event{
		Type:    EventError,
		Subject: subject,
		Status:  "FAILED",
		Details: map[string]string{"operation": operation, "error": err.Error()},
	})
}

func (a *Logger) log(ctx context.Context, event Event) {
	if a == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = a.now().UTC()

	attrs := []any{
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
		slog.Int64("subject", event.Subject),
		slog.String("status", event.Status),
		slog.Time("at", event.Timestamp),
	}
	if !event.Amount.IsZero() {
		attrs = append(attrs, slog.String("amount", event.Amount.StringFixed(2)))
	}
	if len(event.Details) > 0 {
		details := make([]any, 0, len(event.Details))
		for k, v := range event.Details {
			details = append(details, slog.String(k, v))
		}
		attrs = append(attrs, slog.Group("details", details...))
	}

	level := slog.LevelInfo
	if event.Status == "FAILED" || event.Type == EventMismatch {
		level = slog.LevelError
	}
	a.logger.Log(ctx, level, "audit", attrs...)
}
