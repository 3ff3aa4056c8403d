package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewLogger(base), &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestLogger_LogMovement(t *testing.T) {
	logger, buf := newBufferedLogger()

	logger.LogMovement(context.Background(), EventDeposit, 1234567890,
		decimal.NewFromInt(500), decimal.NewFromInt(800), 42)

	record := decode(t, buf)
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "audit", record["component"])
	assert.Equal(t, EventDeposit, record["event_type"])
	assert.Equal(t, "500.00", record["amount"])
	assert.NotEmpty(t, record["event_id"])

	details, ok := record["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "800.00", details["balance"])
	assert.Equal(t, "42", details["transaction_id"])
}

func TestLogger_LogError(t *testing.T) {
	logger, buf := newBufferedLogger()

	logger.LogError(context.Background(), "withdraw", 7, errors.New("insufficient funds"))

	record := decode(t, buf)
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "FAILED", record["status"])
	details := record["details"].(map[string]any)
	assert.Equal(t, "withdraw", details["operation"])
}

func TestLogger_NilIsNoop(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.LogOperation(context.Background(), EventHire, 1, nil)
	})
}
