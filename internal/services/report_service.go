package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/timebank/backoffice/internal/config"
	"github.com/timebank/backoffice/internal/models"
)

const overviewCacheKey = "reports:overview"

type DepartmentHeadcount struct {
	DepartmentID int64  `json:"departmentId"`
	Name         string `json:"name"`
	Employees    int64  `json:"employees"`
}

// Overview is the manager dashboard summary.
type Overview struct {
	ActiveEmployees       int64                 `json:"activeEmployees"`
	TotalAccounts         int64                 `json:"totalAccounts"`
	TotalBalance          decimal.Decimal       `json:"totalBalance"`
	EmployeesByDepartment []DepartmentHeadcount `json:"employeesByDepartment"`
	GeneratedAt           time.Time             `json:"generatedAt"`
}

type ReportService struct {
	db     *sql.DB
	cache  *redis.Client
	ttl    time.Duration
	limits config.LedgerConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewReportService builds the reporting queries. cache may be nil, in which case every
// overview is computed from the database.
func NewReportService(db *sql.DB, cache *redis.Client, cfg config.ReportsConfig, limits config.LedgerConfig, logger *slog.Logger) *ReportService {
	return &ReportService{
		db:     db,
		cache:  cache,
		ttl:    cfg.CacheTTL,
		limits: limits,
		logger: logger.With(slog.String("component", "reports")),
		now:    time.Now,
	}
}

// Overview returns the dashboard totals, served from redis while fresh.
func (s *ReportService) Overview(ctx context.Context) (*Overview, error) {
	if cached, ok := s.cachedOverview(ctx); ok {
		return cached, nil
	}

	overview := &Overview{GeneratedAt: s.now().UTC()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.db.QueryRowContext(gctx, `SELECT COUNT(*) FROM employee WHERE job_title IS NOT NULL`).
			Scan(&overview.ActiveEmployees)
		if err != nil {
			return fmt.Errorf("count employees: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := s.db.QueryRowContext(gctx, `SELECT COUNT(*), COALESCE(SUM(balance), 0) FROM accounts`).
			Scan(&overview.TotalAccounts, &overview.TotalBalance)
		if err != nil {
			return fmt.Errorf("sum accounts: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		rows, err := s.db.QueryContext(gctx, `
			SELECT d.dep_id, d.dep_name, COUNT(e.emp_id)
			FROM department d
			LEFT JOIN employee e ON e.dep_id = d.dep_id AND e.job_title IS NOT NULL
			GROUP BY d.dep_id, d.dep_name
			ORDER BY d.dep_id`)
		if err != nil {
			return fmt.Errorf("count by department: %w", err)
		}
		defer rows.Close()

		headcounts := []DepartmentHeadcount{}
		for rows.Next() {
			var h DepartmentHeadcount
			if err := rows.Scan(&h.DepartmentID, &h.Name, &h.Employees); err != nil {
				return fmt.Errorf("scan headcount: %w", err)
			}
			headcounts = append(headcounts, h)
		}
		overview.EmployeesByDepartment = headcounts
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.storeOverview(ctx, overview)
	return overview, nil
}

// RecentTransactions lists the latest ledger entries across all accounts.
func (s *ReportService) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY transaction_date DESC, transaction_id DESC
		LIMIT $1`, s.clamp(limit))
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// RecentActions lists the latest hire and fire actions with the employee's name.
func (s *ReportService) RecentActions(ctx context.Context, limit int) ([]models.EmployeeAction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+actionColumns+`
		FROM employee_actions a
		JOIN employee e ON a.emp_id = e.emp_id
		ORDER BY a.action_date DESC, a.action_id DESC
		LIMIT $1`, s.clamp(limit))
	if err != nil {
		return nil, fmt.Errorf("recent actions: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

func (s *ReportService) clamp(limit int) int {
	if limit <= 0 {
		return s.limits.HistoryDefault
	}
	return min(limit, s.limits.HistoryMax)
}

func (s *ReportService) cachedOverview(ctx context.Context) (*Overview, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, overviewCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("overview cache read failed", slog.Any("error", err))
		return nil, false
	}

	var overview Overview
	if err := json.Unmarshal(raw, &overview); err != nil {
		s.logger.Warn("discarding malformed overview cache entry", slog.Any("error", err))
		return nil, false
	}
	return &overview, true
}

func (s *ReportService) storeOverview(ctx context.Context, overview *Overview) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(overview)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, overviewCacheKey, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("overview cache write failed", slog.Any("error", err))
	}
}
