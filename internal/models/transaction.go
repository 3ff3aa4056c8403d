package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxDeposit    TransactionType = "Deposit"
	TxWithdrawal TransactionType = "Withdrawal"
	TxTransfer   TransactionType = "Transfer"
)

type TransactionStatus string

const (
	TxPending   TransactionStatus = "Pending"
	TxCompleted TransactionStatus = "Completed"
	TxFailed    TransactionStatus = "Failed"
)

// Transaction is one row of the append-only ledger log.
type Transaction struct {
	ID          int64             `json:"id" db:"transaction_id"`
	AccountNo   int64             `json:"accountNo" db:"account_no"`
	Type        TransactionType   `json:"type" db:"transaction_type"`
	Amount      decimal.Decimal   `json:"amount" db:"transaction_amount"` // always positive
	Date        time.Time         `json:"date" db:"transaction_date"`
	Description string            `json:"description" db:"transaction_description"`
	Status      TransactionStatus `json:"status" db:"transaction_status"`
}
