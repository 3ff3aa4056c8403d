package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timebank/backoffice/internal/config"
	"github.com/timebank/backoffice/internal/logging"
)

func expectOverviewQueries(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(q("SELECT COUNT(*) FROM employee WHERE job_title IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(q("SELECT COUNT(*), COALESCE(SUM(balance), 0) FROM accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(2, "1250.50"))
	mock.ExpectQuery(q("FROM department d LEFT JOIN employee e")).
		WillReturnRows(sqlmock.NewRows([]string{"dep_id", "dep_name", "count"}).
			AddRow(101, "Accountant", 1).
			AddRow(102, "Manager", 1).
			AddRow(107, "HR", 1))
}

func TestReportService_Overview(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	db, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	svc := NewReportService(db, client, config.ReportsConfig{CacheTTL: time.Minute}, testLedgerConfig(), logging.Discard())
	svc.now = func() time.Time { return fixedNow }

	expectOverviewQueries(mock)

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), overview.ActiveEmployees)
	assert.Equal(t, int64(2), overview.TotalAccounts)
	assert.True(t, overview.TotalBalance.Equal(decimal.RequireFromString("1250.5")))
	assert.Len(t, overview.EmployeesByDepartment, 3)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.True(t, mr.Exists(overviewCacheKey))
	assert.Equal(t, time.Minute, mr.TTL(overviewCacheKey))

	t.Run("second read is served from redis", func(t *testing.T) {
		cached, err := svc.Overview(ctx)
		require.NoError(t, err)
		assert.Equal(t, overview.ActiveEmployees, cached.ActiveEmployees)
		assert.True(t, overview.TotalBalance.Equal(cached.TotalBalance))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired entry is recomputed", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		expectOverviewQueries(mock)

		_, err := svc.Overview(ctx)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReportService_OverviewWithoutCache(t *testing.T) {
	db, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	svc := NewReportService(db, nil, config.ReportsConfig{CacheTTL: time.Minute}, testLedgerConfig(), logging.Discard())

	mock.ExpectQuery(q("SELECT COUNT(*) FROM employee")).WillReturnError(errors.New("db down"))
	mock.ExpectQuery(q("FROM accounts")).WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(0, "0"))
	mock.ExpectQuery(q("FROM department d")).WillReturnRows(sqlmock.NewRows([]string{"dep_id", "dep_name", "count"}))

	_, err := svc.Overview(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestReportService_Recent(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReportService(db, nil, config.ReportsConfig{}, testLedgerConfig(), logging.Discard())
	ctx := context.Background()

	mock.ExpectQuery(q("FROM transactions ORDER BY transaction_date DESC, transaction_id DESC LIMIT $1")).WithArgs(10).
		WillReturnRows(sqlmock.NewRows(transactionRowColumns).
			AddRow(9, testAccountNo, "Withdrawal", "20.00", fixedNow, "ATM", "Completed"))
	transactions, err := svc.RecentTransactions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, transactions, 1)

	mock.ExpectQuery(q("ORDER BY a.action_date DESC, a.action_id DESC LIMIT $1")).WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"action_id", "emp_id", "emp_name", "actor_id", "action_type", "action_date", "details"}).
			AddRow(1, testEmployeeID, "Abebe Kebede", testActorID, "Hire", fixedNow, "Hired Abebe Kebede as HR"))
	actions, err := svc.RecentActions(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "Abebe Kebede", actions[0].EmployeeName)

	assert.NoError(t, mock.ExpectationsWereMet())
}
