package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Branch struct {
	ID      int64  `json:"id" db:"branch_id"`
	Name    string `json:"name" db:"branch_name"`
	City    string `json:"city" db:"city"`
	Address string `json:"address" db:"address"`
}

type Department struct {
	ID   int64  `json:"id" db:"dep_id"`
	Name string `json:"name" db:"dep_name"`
}

type Customer struct {
	ID          int64  `json:"id" db:"cust_id"`
	Name        string `json:"name" db:"cust_name"`
	DateOfBirth string `json:"dateOfBirth" db:"dob"`
	Phone       string `json:"phone" db:"phone"`
	City        string `json:"city" db:"city"`
	Address     string `json:"address" db:"address"`
	Email       string `json:"email" db:"email"`
}

type LoanStatus string

const (
	LoanActive    LoanStatus = "Active"
	LoanPaid      LoanStatus = "Paid"
	LoanDefaulted LoanStatus = "Defaulted"
)

type Loan struct {
	ID           int64           `json:"id" db:"loan_id"`
	CustomerID   int64           `json:"customerId" db:"cust_id"`
	AccountNo    int64           `json:"accountNo" db:"account_no"`
	Amount       decimal.Decimal `json:"amount" db:"loan_amount"`
	InterestRate decimal.Decimal `json:"interestRate" db:"interest_rate"`
	StartDate    time.Time       `json:"startDate" db:"start_date"`
	EndDate      time.Time       `json:"endDate" db:"end_date"`
	Status       LoanStatus      `json:"status" db:"status"`
}
