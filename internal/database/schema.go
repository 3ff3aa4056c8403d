package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the back-office tables. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS branch (
		branch_id   BIGINT PRIMARY KEY,
		branch_name TEXT NOT NULL,
		city        TEXT,
		address     TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS department (
		dep_id   BIGINT PRIMARY KEY,
		dep_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customer (
		cust_id   BIGINT PRIMARY KEY,
		cust_name TEXT NOT NULL,
		dob       TEXT,
		phone     TEXT,
		city      TEXT,
		address   TEXT,
		email     TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS employee (
		emp_id        BIGINT PRIMARY KEY,
		emp_name      TEXT NOT NULL,
		gender        TEXT CHECK (gender IN ('M', 'F')),
		dep_id        BIGINT REFERENCES department (dep_id),
		branch_id     BIGINT REFERENCES branch (branch_id),
		job_title     TEXT,
		salary        NUMERIC(12, 2) NOT NULL DEFAULT 0,
		dbo           TEXT,
		phone         TEXT,
		city          TEXT,
		address       TEXT,
		email         TEXT,
		username      TEXT UNIQUE NOT NULL,
		passwords     TEXT NOT NULL,
		terminated_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS employee_branch (
		emp_id    BIGINT NOT NULL REFERENCES employee (emp_id),
		branch_id BIGINT NOT NULL REFERENCES branch (branch_id),
		PRIMARY KEY (emp_id, branch_id)
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		account_no      BIGINT PRIMARY KEY,
		cust_id         BIGINT NOT NULL REFERENCES customer (cust_id),
		balance         NUMERIC(18, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		opening_balance NUMERIC(18, 2) NOT NULL DEFAULT 0,
		opened_date     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		account_type    TEXT NOT NULL,
		account_status  TEXT NOT NULL DEFAULT 'Active' CHECK (account_status IN ('Active', 'Inactive', 'Closed')),
		interest_rate   NUMERIC(6, 4) NOT NULL DEFAULT 0,
		minimum_balance NUMERIC(18, 2) NOT NULL DEFAULT 0,
		currency        TEXT NOT NULL DEFAULT 'ETB',
		version         INTEGER NOT NULL DEFAULT 1,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id          BIGSERIAL PRIMARY KEY,
		account_no              BIGINT NOT NULL REFERENCES accounts (account_no),
		transaction_type        TEXT NOT NULL CHECK (transaction_type IN ('Deposit', 'Withdrawal', 'Transfer')),
		transaction_amount      NUMERIC(18, 2) NOT NULL CHECK (transaction_amount > 0),
		transaction_date        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		transaction_description TEXT,
		transaction_status      TEXT NOT NULL DEFAULT 'Pending' CHECK (transaction_status IN ('Pending', 'Completed', 'Failed'))
	)`,
	`CREATE TABLE IF NOT EXISTS employee_actions (
		action_id   BIGSERIAL PRIMARY KEY,
		emp_id      BIGINT NOT NULL REFERENCES employee (emp_id),
		actor_id    BIGINT REFERENCES employee (emp_id),
		action_type TEXT NOT NULL CHECK (action_type IN ('Hire', 'Fire')),
		action_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		details     TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS loan (
		loan_id       BIGSERIAL PRIMARY KEY,
		cust_id       BIGINT NOT NULL REFERENCES customer (cust_id),
		account_no    BIGINT NOT NULL REFERENCES accounts (account_no),
		loan_amount   NUMERIC(18, 2) NOT NULL,
		interest_rate NUMERIC(6, 4) NOT NULL,
		start_date    DATE NOT NULL,
		end_date      DATE NOT NULL,
		status        TEXT NOT NULL DEFAULT 'Active' CHECK (status IN ('Active', 'Paid', 'Defaulted'))
	)`,
	`CREATE TABLE IF NOT EXISTS loan_repayment (
		repayment_id   BIGSERIAL PRIMARY KEY,
		loan_id        BIGINT NOT NULL REFERENCES loan (loan_id),
		repayment_date DATE NOT NULL,
		amount_paid    NUMERIC(18, 2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account_no ON transactions (account_no)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (transaction_date)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_cust_id ON accounts (cust_id)`,
	`CREATE INDEX IF NOT EXISTS idx_employee_actions_emp_id ON employee_actions (emp_id)`,
}

// EnsureSchema creates any missing table or index.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		for i, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("database: schema statement %d: %w", i, err)
			}
		}
		return nil
	})
}
