package services

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates a non-positive amount or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState indicates the operation is not legal for the entity's status.
	ErrInvalidState = errors.New("invalid state")
	// ErrInsufficientFunds indicates a withdrawal would overdraw the account.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrConflict indicates unique id generation exhausted its retries or a concurrent update won.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoRole indicates the employee's department has no back-office dashboard.
	ErrNoRole = errors.New("role has no dashboard access")
)

const (
	pqUniqueViolation = "23505"
	pqNumericOverflow = "22003"
)

func isUniqueViolation(err error) bool {
	return hasPQCode(err, pqUniqueViolation)
}

func isNumericOverflow(err error) bool {
	return hasPQCode(err, pqNumericOverflow)
}

func hasPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
