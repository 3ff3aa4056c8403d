package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/timebank/backoffice/internal/audit"
	"github.com/timebank/backoffice/internal/config"
	"github.com/timebank/backoffice/internal/database"
	"github.com/timebank/backoffice/internal/models"
)

var defaultSalary = decimal.NewFromInt(5000)

// Fixed pay scale per job title.
var salaryByTitle = map[string]decimal.Decimal{
	"HR":         decimal.NewFromInt(15000),
	"Accountant": decimal.NewFromInt(20000),
	"Manager":    decimal.NewFromInt(30000),
	"Finance":    decimal.NewFromInt(15000),
	"Security":   decimal.NewFromInt(5000),
	"Cleaner":    decimal.NewFromInt(5000),
}

var departmentByTitle = map[string]int64{
	"HR":         models.DeptHR,
	"Accountant": models.DeptAccountant,
	"Manager":    models.DeptManager,
	"Finance":    models.DeptFinance,
	"Security":   models.DeptSecurity,
	"Cleaner":    models.DeptCleaner,
}

// SalaryForTitle returns the pay for a job title; unknown titles get the base salary.
func SalaryForTitle(title string) decimal.Decimal {
	if s, ok := salaryByTitle[title]; ok {
		return s
	}
	return defaultSalary
}

// DepartmentForTitle returns the department of a job title, or nil when the title has none.
func DepartmentForTitle(title string) *int64 {
	if dep, ok := departmentByTitle[title]; ok {
		return &dep
	}
	return nil
}

type HireRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Gender      string `json:"gender" validate:"required,oneof=M F"`
	JobTitle    string `json:"jobTitle" validate:"required"`
	BranchID    int64  `json:"branchId" validate:"required,gt=0"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Phone       string `json:"phone" validate:"required"`
	City        string `json:"city" validate:"required"`
	Address     string `json:"address" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	ActorID     int64  `json:"-"`
}

// HireResult carries the generated credentials. They are shown once and never read back.
type HireResult struct {
	EmployeeID int64           `json:"employeeId"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	Salary     decimal.Decimal `json:"salary"`
}

type EmployeeService struct {
	db        *sql.DB
	ids       *IDGenerator
	attempts  int
	draw      func(lo, hi int64) (int64, error)
	validator *ValidationHelper
	audit     *audit.Logger
	logger    *slog.Logger
	now       func() time.Time
}

func NewEmployeeService(db *sql.DB, cfg config.LedgerConfig, auditLogger *audit.Logger, logger *slog.Logger) *EmployeeService {
	return &EmployeeService{
		db:        db,
		ids:       NewIDGenerator(cfg.EmployeeID, cfg.IDAttempts),
		attempts:  max(cfg.IDAttempts, 1),
		draw:      randomInRange,
		validator: NewValidationHelper(),
		audit:     auditLogger,
		logger:    logger.With(slog.String("component", "employees")),
		now:       time.Now,
	}
}

// HireEmployee creates the employee with generated credentials, assigns the branch and
// records the Hire action, all in one transaction.
func (s *EmployeeService) HireEmployee(ctx context.Context, req HireRequest) (*HireResult, error) {
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}

	result := &HireResult{Salary: SalaryForTitle(req.JobTitle)}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM branch WHERE branch_id = $1)`, req.BranchID).Scan(&exists); err != nil {
			return fmt.Errorf("check branch %d: %w", req.BranchID, err)
		}
		if !exists {
			return fmt.Errorf("%w: branch %d", ErrNotFound, req.BranchID)
		}

		var err error
		if result.EmployeeID, err = s.ids.Next(ctx, tx, existsEmployeeQuery); err != nil {
			return err
		}
		if result.Username, err = s.uniqueUsername(ctx, tx, req.Name); err != nil {
			return err
		}
		password, err := s.draw(100000, 999999)
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		result.Password = strconv.FormatInt(password, 10)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO employee (emp_id, emp_name, gender, dep_id, branch_id, job_title, salary, dbo, phone, city, address, email, username, passwords)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			result.EmployeeID, req.Name, req.Gender, DepartmentForTitle(req.JobTitle), req.BranchID, req.JobTitle,
			result.Salary, req.DateOfBirth, req.Phone, req.City, req.Address, req.Email, result.Username, result.Password)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: employee %d or username %s already taken", ErrConflict, result.EmployeeID, result.Username)
			}
			return fmt.Errorf("insert employee: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO employee_branch (emp_id, branch_id) VALUES ($1, $2)`,
			result.EmployeeID, req.BranchID); err != nil {
			return fmt.Errorf("assign branch: %w", err)
		}

		return s.recordAction(ctx, tx, result.EmployeeID, req.ActorID, models.ActionHire,
			fmt.Sprintf("Hired %s as %s", req.Name, req.JobTitle))
	})
	if err != nil {
		s.audit.LogError(ctx, "hire_employee", req.ActorID, err)
		return nil, err
	}

	s.audit.LogOperation(ctx, audit.EventHire, result.EmployeeID, map[string]string{
		"actor_id":  strconv.FormatInt(req.ActorID, 10),
		"job_title": req.JobTitle,
		"branch_id": strconv.FormatInt(req.BranchID, 10),
	})
	return result, nil
}

// FireEmployee terminates an employee. The row is kept: job_title is cleared and
// terminated_at set, which also revokes dashboard access.
func (s *EmployeeService) FireEmployee(ctx context.Context, employeeID, actorID int64) error {
	if employeeID == actorID {
		return fmt.Errorf("%w: employees cannot fire themselves", ErrInvalidArgument)
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var (
			name  string
			title sql.NullString
		)
		err := tx.QueryRowContext(ctx, `SELECT emp_name, job_title FROM employee WHERE emp_id = $1 FOR UPDATE`, employeeID).
			Scan(&name, &title)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: employee %d", ErrNotFound, employeeID)
		}
		if err != nil {
			return fmt.Errorf("lock employee %d: %w", employeeID, err)
		}
		if !title.Valid {
			return fmt.Errorf("%w: employee %d is already terminated", ErrInvalidState, employeeID)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE employee SET job_title = NULL, terminated_at = $1 WHERE emp_id = $2`,
			s.now(), employeeID); err != nil {
			return fmt.Errorf("terminate employee %d: %w", employeeID, err)
		}

		return s.recordAction(ctx, tx, employeeID, actorID, models.ActionFire,
			fmt.Sprintf("Fired %s (ID: %d)", name, employeeID))
	})
	if err != nil {
		s.audit.LogError(ctx, "fire_employee", employeeID, err)
		return err
	}

	s.audit.LogOperation(ctx, audit.EventFire, employeeID, map[string]string{
		"actor_id": strconv.FormatInt(actorID, 10),
	})
	return nil
}

const employeeColumns = `e.emp_id, e.emp_name, COALESCE(e.gender, ''), e.dep_id, COALESCE(e.branch_id, 0),
	COALESCE(b.branch_name, ''), e.job_title, e.salary, COALESCE(e.dbo, ''), COALESCE(e.phone, ''),
	COALESCE(e.city, ''), COALESCE(e.address, ''), COALESCE(e.email, ''), e.username, e.terminated_at`

// ListEmployees returns all employees, or only those still employed.
func (s *EmployeeService) ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employee e
		LEFT JOIN branch b ON e.branch_id = b.branch_id`
	if activeOnly {
		query += ` WHERE e.job_title IS NOT NULL`
	}
	query += ` ORDER BY e.emp_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	employees := []models.Employee{}
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Gender, &e.DepartmentID, &e.BranchID, &e.BranchName, &e.JobTitle,
			&e.Salary, &e.DateOfBirth, &e.Phone, &e.City, &e.Address, &e.Email, &e.Username, &e.TerminatedAt); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// ListActions returns the hire/fire trail of one employee, oldest first.
func (s *EmployeeService) ListActions(ctx context.Context, employeeID int64) ([]models.EmployeeAction, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, existsEmployeeQuery, employeeID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check employee %d: %w", employeeID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: employee %d", ErrNotFound, employeeID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+actionColumns+`
		FROM employee_actions a
		JOIN employee e ON a.emp_id = e.emp_id
		WHERE a.emp_id = $1
		ORDER BY a.action_date, a.action_id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list actions %d: %w", employeeID, err)
	}
	defer rows.Close()

	return scanActions(rows)
}

func (s *EmployeeService) uniqueUsername(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: name is blank", ErrInvalidArgument)
	}
	prefix := strings.ToLower(fields[0])
	for i := 0; i < s.attempts; i++ {
		suffix, err := s.draw(100, 999)
		if err != nil {
			return "", fmt.Errorf("generate username: %w", err)
		}
		candidate := prefix + strconv.FormatInt(suffix, 10)

		var taken bool
		if err := tx.QueryRowContext(ctx, existsUsernameQuery, candidate).Scan(&taken); err != nil {
			return "", fmt.Errorf("check username %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free username for %q after %d attempts", ErrConflict, prefix, s.attempts)
}

func (s *EmployeeService) recordAction(ctx context.Context, tx *sql.Tx, employeeID, actorID int64, actionType models.ActionType, details string) error {
	var actor any
	if actorID > 0 {
		actor = actorID
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO employee_actions (emp_id, actor_id, action_type, action_date, details)
		VALUES ($1, $2, $3, $4, $5)`,
		employeeID, actor, actionType, s.now(), details); err != nil {
		return fmt.Errorf("record %s action: %w", actionType, err)
	}
	return nil
}

const actionColumns = `a.action_id, a.emp_id, e.emp_name, a.actor_id, a.action_type, a.action_date, COALESCE(a.details, '')`

func scanActions(rows *sql.Rows) ([]models.EmployeeAction, error) {
	actions := []models.EmployeeAction{}
	for rows.Next() {
		var a models.EmployeeAction
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.EmployeeName, &a.ActorID, &a.Type, &a.Date, &a.Details); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
