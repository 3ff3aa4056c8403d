package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/timebank/backoffice/internal/models"
)

// ReferenceService serves the branch and department lookup tables.
type ReferenceService struct {
	db *sql.DB
}

func NewReferenceService(db *sql.DB) *ReferenceService {
	return &ReferenceService{db: db}
}

func (s *ReferenceService) ListBranches(ctx context.Context) ([]models.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT branch_id, branch_name, COALESCE(city, ''), COALESCE(address, '')
		FROM branch
		ORDER BY branch_id`)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	branches := []models.Branch{}
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.City, &b.Address); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (s *ReferenceService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT dep_id, dep_name FROM department ORDER BY dep_id`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	departments := []models.Department{}
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}
