package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Department codes as seeded in the department table.
const (
	DeptAccountant int64 = 101
	DeptManager    int64 = 102
	DeptFinance    int64 = 103
	DeptSecurity   int64 = 104
	DeptCleaner    int64 = 105
	DeptHR         int64 = 107
)

// Role selects which back-office operations an authenticated employee may call.
type Role string

const (
	RoleNone       Role = ""
	RoleHR         Role = "HR"
	RoleAccountant Role = "Accountant"
	RoleManager    Role = "Manager"
)

// RoleForDepartment resolves the dashboard role of a department code.
func RoleForDepartment(depID int64) Role {
	switch depID {
	case DeptHR:
		return RoleHR
	case DeptAccountant:
		return RoleAccountant
	case DeptManager:
		return RoleManager
	}
	return RoleNone
}

// Employee is a staff member. A nil JobTitle means the employee was fired.
type Employee struct {
	ID           int64           `json:"id" db:"emp_id"`
	Name         string          `json:"name" db:"emp_name"`
	Gender       string          `json:"gender" db:"gender"`
	DepartmentID *int64          `json:"departmentId,omitempty" db:"dep_id"`
	BranchID     int64           `json:"branchId" db:"branch_id"`
	BranchName   string          `json:"branchName,omitempty"`
	JobTitle     *string         `json:"jobTitle,omitempty" db:"job_title"`
	Salary       decimal.Decimal `json:"salary" db:"salary"`
	DateOfBirth  string          `json:"dateOfBirth" db:"dbo"`
	Phone        string          `json:"phone" db:"phone"`
	City         string          `json:"city" db:"city"`
	Address      string          `json:"address" db:"address"`
	Email        string          `json:"email" db:"email"`
	Username     string          `json:"username" db:"username"`
	TerminatedAt *time.Time      `json:"terminatedAt,omitempty" db:"terminated_at"`
}

func (e Employee) Active() bool {
	return e.JobTitle != nil
}

// Status is the label shown in employee listings.
func (e Employee) Status() string {
	if e.Active() {
		return "Active"
	}
	return "Fired"
}

type ActionType string

const (
	ActionHire ActionType = "Hire"
	ActionFire ActionType = "Fire"
)

// EmployeeAction is one entry of the HR audit trail.
type EmployeeAction struct {
	ID           int64      `json:"id" db:"action_id"`
	EmployeeID   int64      `json:"employeeId" db:"emp_id"`
	EmployeeName string     `json:"employeeName,omitempty"`
	ActorID      *int64     `json:"actorId,omitempty" db:"actor_id"`
	Type         ActionType `json:"type" db:"action_type"`
	Date         time.Time  `json:"date" db:"action_date"`
	Details      string     `json:"details" db:"details"`
}
