package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/timebank/backoffice/internal/models"
)

// Branches seeded on first start.
var Branches = []models.Branch{
	{ID: 1, Name: "Main Branch", City: "Addis Ababa", Address: "22 Bole Road"},
	{ID: 2, Name: "North Branch", City: "Mekele", Address: "15 Hawzen Street"},
	{ID: 3, Name: "East Branch", City: "Dire Dawa", Address: "8 Kebele Avenue"},
	{ID: 4, Name: "South Branch", City: "Hawassa", Address: "3 Lake View Road"},
	{ID: 5, Name: "West Branch", City: "Bahir Dar", Address: "12 Tana Circle"},
}

var Departments = []models.Department{
	{ID: models.DeptAccountant, Name: "Accountant"},
	{ID: models.DeptManager, Name: "Manager"},
	{ID: models.DeptFinance, Name: "Finance"},
	{ID: models.DeptSecurity, Name: "Security"},
	{ID: models.DeptCleaner, Name: "Cleaner"},
	{ID: models.DeptHR, Name: "HR"},
}

type seedEmployee struct {
	id       int64
	name     string
	gender   string
	depID    int64
	title    string
	salary   int64
	dob      string
	phone    string
	email    string
	username string
	password string
}

// One administrator per dashboard role so a fresh install can log in.
var seedEmployees = []seedEmployee{
	{1001, "Admin Manager", "M", models.DeptManager, "Manager", 30000, "1980-01-01", "911223344", "manager@timebank.com", "manager", "123456"},
	{1002, "Admin HR", "F", models.DeptHR, "HR", 15000, "1985-05-15", "922334455", "hr@timebank.com", "hr", "123456"},
	{1003, "Admin Accountant", "M", models.DeptAccountant, "Accountant", 20000, "1982-03-10", "933445566", "accountant@timebank.com", "accountant", "123456"},
}

// Seed inserts reference data and the initial administrators; existing rows are left alone.
func Seed(ctx context.Context, db *sql.DB) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		for _, b := range Branches {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO branch (branch_id, branch_name, city, address) VALUES ($1, $2, $3, $4)
				ON CONFLICT (branch_id) DO NOTHING`,
				b.ID, b.Name, b.City, b.Address); err != nil {
				return fmt.Errorf("database: seed branch %d: %w", b.ID, err)
			}
		}
		for _, d := range Departments {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO department (dep_id, dep_name) VALUES ($1, $2)
				ON CONFLICT (dep_id) DO NOTHING`,
				d.ID, d.Name); err != nil {
				return fmt.Errorf("database: seed department %d: %w", d.ID, err)
			}
		}
		for _, e := range seedEmployees {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO employee (emp_id, emp_name, gender, dep_id, branch_id, job_title, salary, dbo, phone, city, address, email, username, passwords)
				VALUES ($1, $2, $3, $4, 1, $5, $6, $7, $8, 'Addis Ababa', '22 Bole Road', $9, $10, $11)
				ON CONFLICT (emp_id) DO NOTHING`,
				e.id, e.name, e.gender, e.depID, e.title, e.salary, e.dob, e.phone, e.email, e.username, e.password); err != nil {
				return fmt.Errorf("database: seed employee %d: %w", e.id, err)
			}
		}
		return nil
	})
}
