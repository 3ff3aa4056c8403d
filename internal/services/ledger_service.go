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

const initialDepositDescription = "Initial deposit"

// MaxAmount is the largest value a NUMERIC(18,2) balance or amount column holds.
var MaxAmount = decimal.RequireFromString("9999999999999999.99")

const accountColumns = `a.account_no, a.cust_id, a.balance, a.opening_balance, a.opened_date, a.account_type,
	a.account_status, a.interest_rate, a.minimum_balance, a.currency, a.version, a.updated_at`

const transactionColumns = `transaction_id, account_no, transaction_type, transaction_amount, transaction_date,
	COALESCE(transaction_description, ''), transaction_status`

// LedgerService owns accounts and the transaction log. Every balance mutation and
// its log row are written in a single database transaction.
type LedgerService struct {
	db         *sql.DB
	cfg        config.LedgerConfig
	accountIDs *IDGenerator
	customers  *CustomerService
	audit      *audit.Logger
	logger     *slog.Logger
	now        func() time.Time
}

func NewLedgerService(db *sql.DB, cfg config.LedgerConfig, customers *CustomerService, auditLogger *audit.Logger, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		db:         db,
		cfg:        cfg,
		accountIDs: NewIDGenerator(cfg.AccountNo, cfg.IDAttempts),
		customers:  customers,
		audit:      auditLogger,
		logger:     logger.With(slog.String("component", "ledger")),
		now:        time.Now,
	}
}

// OpenAccount opens an Active account for an existing customer and returns its number.
func (s *LedgerService) OpenAccount(ctx context.Context, customerID int64, accountType string, initialDeposit decimal.Decimal) (int64, error) {
	if err := validateOpening(accountType, initialDeposit); err != nil {
		return 0, err
	}

	var accountNo int64
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		accountNo, err = s.openAccountTx(ctx, tx, customerID, accountType, initialDeposit)
		return err
	})
	if err != nil {
		s.audit.LogError(ctx, "open_account", customerID, err)
		return 0, err
	}

	s.audit.LogOperation(ctx, audit.EventAccountOpened, accountNo, map[string]string{
		"customer_id":     strconv.FormatInt(customerID, 10),
		"account_type":    accountType,
		"initial_deposit": initialDeposit.StringFixed(2),
	})
	return accountNo, nil
}

// OpenCustomerAccount registers a new customer and opens their first account atomically.
func (s *LedgerService) OpenCustomerAccount(ctx context.Context, customer NewCustomer, accountType string, initialDeposit decimal.Decimal) (int64, int64, error) {
	if err := s.customers.validate(customer); err != nil {
		return 0, 0, err
	}
	if err := validateOpening(accountType, initialDeposit); err != nil {
		return 0, 0, err
	}

	var customerID, accountNo int64
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		if customerID, err = s.customers.createTx(ctx, tx, customer); err != nil {
			return err
		}
		accountNo, err = s.openAccountTx(ctx, tx, customerID, accountType, initialDeposit)
		return err
	})
	if err != nil {
		s.audit.LogError(ctx, "open_customer_account", 0, err)
		return 0, 0, err
	}

	s.audit.LogOperation(ctx, audit.EventAccountOpened, accountNo, map[string]string{
		"customer_id":     strconv.FormatInt(customerID, 10),
		"account_type":    accountType,
		"initial_deposit": initialDeposit.StringFixed(2),
	})
	return customerID, accountNo, nil
}

func (s *LedgerService) openAccountTx(ctx context.Context, tx *sql.Tx, customerID int64, accountType string, initialDeposit decimal.Decimal) (int64, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, existsCustomerQuery, customerID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check customer %d: %w", customerID, err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: customer %d", ErrNotFound, customerID)
	}

	accountNo, err := s.accountIDs.Next(ctx, tx, existsAccountQuery)
	if err != nil {
		return 0, err
	}

	now := s.now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (account_no, cust_id, balance, opening_balance, opened_date, account_type, account_status, currency, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $5)`,
		accountNo, customerID, initialDeposit, decimal.Zero, now, accountType, models.AccountActive, s.cfg.Currency)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: account number %d already taken", ErrConflict, accountNo)
		}
		return 0, fmt.Errorf("insert account: %w", err)
	}

	if initialDeposit.IsPositive() {
		if _, err := s.appendTransaction(ctx, tx, accountNo, models.TxDeposit, initialDeposit, initialDepositDescription, now); err != nil {
			return 0, err
		}
	}
	return accountNo, nil
}

// Deposit credits amount to an Active account and returns the new balance.
func (s *LedgerService) Deposit(ctx context.Context, accountNo int64, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	return s.applyMovement(ctx, accountNo, models.TxDeposit, amount, description)
}

// Withdraw debits amount from an Active account. It never drives the balance below zero.
func (s *LedgerService) Withdraw(ctx context.Context, accountNo int64, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	return s.applyMovement(ctx, accountNo, models.TxWithdrawal, amount, description)
}

func (s *LedgerService) applyMovement(ctx context.Context, accountNo int64, txType models.TransactionType, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	if strings.TrimSpace(description) == "" {
		description = string(txType)
	}

	var (
		newBalance decimal.Decimal
		txID       int64
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		account, err := s.lockAccount(ctx, tx, accountNo)
		if err != nil {
			return err
		}
		if account.Status != models.AccountActive {
			return fmt.Errorf("%w: account %d is %s", ErrInvalidState, accountNo, account.Status)
		}

		switch txType {
		case models.TxDeposit:
			newBalance = account.Balance.Add(amount)
			if newBalance.GreaterThan(MaxAmount) {
				return fmt.Errorf("%w: balance would exceed %s", ErrInvalidArgument, MaxAmount.StringFixed(2))
			}
		case models.TxWithdrawal:
			if account.Balance.LessThan(amount) {
				return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds,
					account.Balance.StringFixed(2), amount.StringFixed(2))
			}
			newBalance = account.Balance.Sub(amount)
		default:
			return fmt.Errorf("%w: unsupported transaction type %s", ErrInvalidArgument, txType)
		}

		now := s.now()
		if err := s.updateAccountBalance(ctx, tx, accountNo, newBalance, account.Version, now); err != nil {
			return err
		}
		txID, err = s.appendTransaction(ctx, tx, accountNo, txType, amount, description, now)
		return err
	})
	if isNumericOverflow(err) {
		err = fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err != nil {
		s.audit.LogError(ctx, strings.ToLower(string(txType)), accountNo, err)
		return decimal.Zero, err
	}

	eventType := audit.EventDeposit
	if txType == models.TxWithdrawal {
		eventType = audit.EventWithdrawal
	}
	s.audit.LogMovement(ctx, eventType, accountNo, amount, newBalance, txID)
	return newBalance, nil
}

// GetBalance returns the current balance of an account.
func (s *LedgerService) GetBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE account_no = $1`, accountNo).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: account %d", ErrNotFound, accountNo)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance %d: %w", accountNo, err)
	}
	return balance, nil
}

// GetAccount returns the full account row.
func (s *LedgerService) GetAccount(ctx context.Context, accountNo int64) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts a WHERE a.account_no = $1`, accountNo)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountNo)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", accountNo, err)
	}
	return account, nil
}

// GetTransactionHistory returns up to limit transactions, newest first. A non-positive
// limit selects the configured default; limits above the configured maximum are capped.
func (s *LedgerService) GetTransactionHistory(ctx context.Context, accountNo int64, limit int) ([]models.Transaction, error) {
	if err := s.requireAccount(ctx, accountNo); err != nil {
		return nil, err
	}
	return s.history(ctx, accountNo, s.clampLimit(limit))
}

func (s *LedgerService) history(ctx context.Context, accountNo int64, limit int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_no = $1
		ORDER BY transaction_date DESC, transaction_id DESC
		LIMIT $2`, accountNo, limit)
	if err != nil {
		return nil, fmt.Errorf("query history %d: %w", accountNo, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// SearchAccount finds an account by number, or by the first customer whose name contains term.
func (s *LedgerService) SearchAccount(ctx context.Context, term string) (*models.AccountSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrInvalidArgument)
	}

	query := `SELECT ` + accountColumns + `, c.cust_name
		FROM accounts a
		JOIN customer c ON a.cust_id = c.cust_id `
	var arg any
	if accountNo, err := strconv.ParseInt(term, 10, 64); err == nil {
		query += `WHERE a.account_no = $1`
		arg = accountNo
	} else {
		query += `WHERE c.cust_name ILIKE $1 ORDER BY a.account_no LIMIT 1`
		arg = "%" + term + "%"
	}

	var customerName string
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, arg), &customerName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no account matches %q", ErrNotFound, term)
	}
	if err != nil {
		return nil, fmt.Errorf("search account: %w", err)
	}

	transactions, err := s.history(ctx, account.AccountNo, s.cfg.HistoryDefault)
	if err != nil {
		return nil, err
	}
	return &models.AccountSummary{Account: *account, CustomerName: customerName, Transactions: transactions}, nil
}

// SetAccountStatus moves an account between Active and Inactive, or closes it.
// Closed is terminal and only an account with a zero balance can be closed.
func (s *LedgerService) SetAccountStatus(ctx context.Context, accountNo int64, status models.AccountStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown account status %q", ErrInvalidArgument, status)
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		account, err := s.lockAccount(ctx, tx, accountNo)
		if err != nil {
			return err
		}
		if account.Status == status {
			return nil
		}
		if account.Status == models.AccountClosed {
			return fmt.Errorf("%w: account %d is closed", ErrInvalidState, accountNo)
		}
		if status == models.AccountClosed && !account.Balance.IsZero() {
			return fmt.Errorf("%w: account %d still holds %s", ErrInvalidState, accountNo, account.Balance.StringFixed(2))
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET account_status = $1, version = version + 1, updated_at = $2
			WHERE account_no = $3 AND version = $4`,
			status, s.now(), accountNo, account.Version)
		if err != nil {
			return fmt.Errorf("update status %d: %w", accountNo, err)
		}
		return requireOneRow(res, accountNo)
	})
	if err != nil {
		s.audit.LogError(ctx, "set_account_status", accountNo, err)
		return err
	}

	s.audit.LogOperation(ctx, audit.EventAccountStatus, accountNo, map[string]string{"status": string(status)})
	return nil
}

// ListLoans returns the loans drawn against an account.
func (s *LedgerService) ListLoans(ctx context.Context, accountNo int64) ([]models.Loan, error) {
	if err := s.requireAccount(ctx, accountNo); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT loan_id, cust_id, account_no, loan_amount, interest_rate, start_date, end_date, status
		FROM loan
		WHERE account_no = $1
		ORDER BY start_date DESC, loan_id DESC`, accountNo)
	if err != nil {
		return nil, fmt.Errorf("query loans %d: %w", accountNo, err)
	}
	defer rows.Close()

	loans := []models.Loan{}
	for rows.Next() {
		var l models.Loan
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.AccountNo, &l.Amount, &l.InterestRate, &l.StartDate, &l.EndDate, &l.Status); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

const reconcileQuery = `
	SELECT a.account_no, a.balance, a.opening_balance,
		COALESCE(SUM(t.transaction_amount) FILTER (WHERE t.transaction_type = 'Deposit'), 0),
		COALESCE(SUM(t.transaction_amount) FILTER (WHERE t.transaction_type = 'Withdrawal'), 0)
	FROM accounts a
	LEFT JOIN transactions t ON t.account_no = a.account_no AND t.transaction_status = 'Completed'
	%s
	GROUP BY a.account_no, a.balance, a.opening_balance
	ORDER BY a.account_no`

// VerifyAccount recomputes an account's balance from its completed transactions.
func (s *LedgerService) VerifyAccount(ctx context.Context, accountNo int64) (*models.Reconciliation, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(reconcileQuery, "WHERE a.account_no = $1"), accountNo)
	var r models.Reconciliation
	err := row.Scan(&r.AccountNo, &r.StoredBalance, &r.OpeningBalance, &r.Deposits, &r.Withdrawals)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountNo)
	}
	if err != nil {
		return nil, fmt.Errorf("verify account %d: %w", accountNo, err)
	}
	return &r, nil
}

// Reconcile checks every account and returns the ones whose balance disagrees with the log.
func (s *LedgerService) Reconcile(ctx context.Context) ([]models.Reconciliation, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(reconcileQuery, ""))
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	defer rows.Close()

	mismatches := []models.Reconciliation{}
	checked := 0
	for rows.Next() {
		var r models.Reconciliation
		if err := rows.Scan(&r.AccountNo, &r.StoredBalance, &r.OpeningBalance, &r.Deposits, &r.Withdrawals); err != nil {
			return nil, fmt.Errorf("scan reconciliation: %w", err)
		}
		checked++
		if !r.Balanced() {
			s.audit.LogOperation(ctx, audit.EventMismatch, r.AccountNo, map[string]string{
				"stored":   r.StoredBalance.StringFixed(2),
				"expected": r.Expected().StringFixed(2),
			})
			mismatches = append(mismatches, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("ledger reconciled", slog.Int("accounts", checked), slog.Int("mismatches", len(mismatches)))
	return mismatches, nil
}

func (s *LedgerService) requireAccount(ctx context.Context, accountNo int64) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, existsAccountQuery, accountNo).Scan(&exists); err != nil {
		return fmt.Errorf("check account %d: %w", accountNo, err)
	}
	if !exists {
		return fmt.Errorf("%w: account %d", ErrNotFound, accountNo)
	}
	return nil
}

func (s *LedgerService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.HistoryDefault
	}
	if limit > s.cfg.HistoryMax {
		return s.cfg.HistoryMax
	}
	return limit
}

// lockAccount reads the account row and holds its lock until the transaction ends.
func (s *LedgerService) lockAccount(ctx context.Context, tx *sql.Tx, accountNo int64) (*models.Account, error) {
	account := models.Account{AccountNo: accountNo}
	err := tx.QueryRowContext(ctx, `
		SELECT balance, account_status, version
		FROM accounts
		WHERE account_no = $1
		FOR UPDATE`, accountNo).Scan(&account.Balance, &account.Status, &account.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountNo)
	}
	if err != nil {
		return nil, fmt.Errorf("lock account %d: %w", accountNo, err)
	}
	return &account, nil
}

func (s *LedgerService) updateAccountBalance(ctx context.Context, tx *sql.Tx, accountNo int64, newBalance decimal.Decimal, version int, at time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE account_no = $3 AND version = $4`,
		newBalance, at, accountNo, version)
	if err != nil {
		return fmt.Errorf("update balance %d: %w", accountNo, err)
	}
	return requireOneRow(res, accountNo)
}

func (s *LedgerService) appendTransaction(ctx context.Context, tx *sql.Tx, accountNo int64, txType models.TransactionType, amount decimal.Decimal, description string, at time.Time) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO transactions (account_no, transaction_type, transaction_amount, transaction_date, transaction_description, transaction_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING transaction_id`,
		accountNo, txType, amount, at, description, models.TxCompleted).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append transaction for %d: %w", accountNo, err)
	}
	return id, nil
}

func requireOneRow(res sql.Result, accountNo int64) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: optimistic lock failed for account %d", ErrConflict, accountNo)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner, extra ...any) (*models.Account, error) {
	var a models.Account
	dest := []any{
		&a.AccountNo, &a.CustomerID, &a.Balance, &a.OpeningBalance, &a.OpenedDate, &a.Type,
		&a.Status, &a.InterestRate, &a.MinimumBalance, &a.Currency, &a.Version, &a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountNo, &t.Type, &t.Amount, &t.Date, &t.Description, &t.Status); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidArgument)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: amount has more than two decimal places", ErrInvalidArgument)
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: amount exceeds %s", ErrInvalidArgument, MaxAmount.StringFixed(2))
	}
	return nil
}

func validateOpening(accountType string, initialDeposit decimal.Decimal) error {
	if strings.TrimSpace(accountType) == "" {
		return fmt.Errorf("%w: account type is required", ErrInvalidArgument)
	}
	if initialDeposit.IsNegative() {
		return fmt.Errorf("%w: initial deposit cannot be negative", ErrInvalidArgument)
	}
	if !initialDeposit.Equal(initialDeposit.Round(2)) {
		return fmt.Errorf("%w: initial deposit has more than two decimal places", ErrInvalidArgument)
	}
	if initialDeposit.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: initial deposit exceeds %s", ErrInvalidArgument, MaxAmount.StringFixed(2))
	}
	return nil
}
