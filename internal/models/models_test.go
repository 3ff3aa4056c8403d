package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoleForDepartment(t *testing.T) {
	assert.Equal(t, RoleHR, RoleForDepartment(DeptHR))
	assert.Equal(t, RoleAccountant, RoleForDepartment(DeptAccountant))
	assert.Equal(t, RoleManager, RoleForDepartment(DeptManager))
	assert.Equal(t, RoleNone, RoleForDepartment(DeptSecurity))
	assert.Equal(t, RoleNone, RoleForDepartment(0))
}

func TestReconciliation_Balanced(t *testing.T) {
	r := Reconciliation{
		AccountNo:      1,
		StoredBalance:  decimal.NewFromInt(300),
		OpeningBalance: decimal.Zero,
		Deposits:       decimal.NewFromInt(500),
		Withdrawals:    decimal.NewFromInt(200),
	}
	assert.True(t, r.Balanced())

	r.StoredBalance = decimal.NewFromInt(250)
	assert.False(t, r.Balanced())
	assert.True(t, decimal.NewFromInt(300).Equal(r.Expected()))
}

func TestEmployee_Status(t *testing.T) {
	title := "HR"
	e := Employee{JobTitle: &title}
	assert.True(t, e.Active())
	assert.Equal(t, "Active", e.Status())

	e.JobTitle = nil
	assert.Equal(t, "Fired", e.Status())
}

func TestAccountStatus_Valid(t *testing.T) {
	assert.True(t, AccountClosed.Valid())
	assert.False(t, AccountStatus("Frozen").Valid())
}
