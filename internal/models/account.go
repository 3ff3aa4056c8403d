package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountActive   AccountStatus = "Active"
	AccountInactive AccountStatus = "Inactive"
	AccountClosed   AccountStatus = "Closed"
)

// Valid reports whether s is one of the statuses the accounts table accepts.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountActive, AccountInactive, AccountClosed:
		return true
	}
	return false
}

// Account is a customer account. Balance only moves through deposits and withdrawals.
type Account struct {
	AccountNo      int64           `json:"accountNo" db:"account_no"`
	CustomerID     int64           `json:"customerId" db:"cust_id"`
	Balance        decimal.Decimal `json:"balance" db:"balance"`
	OpeningBalance decimal.Decimal `json:"openingBalance" db:"opening_balance"`
	OpenedDate     time.Time       `json:"openedDate" db:"opened_date"`
	Type           string          `json:"accountType" db:"account_type"`
	Status         AccountStatus   `json:"status" db:"account_status"`
	InterestRate   decimal.Decimal `json:"interestRate" db:"interest_rate"`
	MinimumBalance decimal.Decimal `json:"minimumBalance" db:"minimum_balance"`
	Currency       string          `json:"currency" db:"currency"`
	Version        int             `json:"-" db:"version"` // for optimistic locking
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// AccountSummary is what an account search returns.
type AccountSummary struct {
	Account      Account       `json:"account"`
	CustomerName string        `json:"customerName"`
	Transactions []Transaction `json:"transactions"`
}

// Reconciliation compares a stored balance with the one derived from the transaction log.
type Reconciliation struct {
	AccountNo      int64           `json:"accountNo"`
	StoredBalance  decimal.Decimal `json:"storedBalance"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Deposits       decimal.Decimal `json:"deposits"`
	Withdrawals    decimal.Decimal `json:"withdrawals"`
}

// Expected is opening balance plus deposits minus withdrawals.
func (r Reconciliation) Expected() decimal.Decimal {
	return r.OpeningBalance.Add(r.Deposits).Sub(r.Withdrawals)
}

func (r Reconciliation) Balanced() bool {
	return r.StoredBalance.Equal(r.Expected())
}
