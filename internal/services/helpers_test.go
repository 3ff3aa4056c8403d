package services

import (
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/timebank/backoffice/internal/config"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func testLedgerConfig() config.LedgerConfig {
	return config.LedgerConfig{
		AccountNo:      config.IDRange{Min: 1000000000, Max: 9999999999},
		CustomerID:     config.IDRange{Min: 10000, Max: 99999},
		EmployeeID:     config.IDRange{Min: 1000, Max: 9999},
		IDAttempts:     3,
		HistoryDefault: 10,
		HistoryMax:     100,
		Currency:       "ETB",
	}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// sequenceDraw hands out values in order and fails once they run out.
func sequenceDraw(values ...int64) func(lo, hi int64) (int64, error) {
	i := 0
	return func(lo, hi int64) (int64, error) {
		if i >= len(values) {
			return 0, fmt.Errorf("sequenceDraw exhausted after %d values", len(values))
		}
		v := values[i]
		i++
		return v, nil
	}
}

func existsRows(exists bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(exists)
}

func q(query string) string {
	return regexp.QuoteMeta(query)
}
