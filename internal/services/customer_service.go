package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/timebank/backoffice/internal/config"
	"github.com/timebank/backoffice/internal/database"
	"github.com/timebank/backoffice/internal/models"
)

// NewCustomer is the registration form for a bank customer.
type NewCustomer struct {
	Name        string `json:"name" validate:"required,min=2"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Phone       string `json:"phone" validate:"required"`
	City        string `json:"city" validate:"required"`
	Address     string `json:"address" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
}

type CustomerService struct {
	db        *sql.DB
	ids       *IDGenerator
	validator *ValidationHelper
	logger    *slog.Logger
}

func NewCustomerService(db *sql.DB, cfg config.LedgerConfig, logger *slog.Logger) *CustomerService {
	return &CustomerService{
		db:        db,
		ids:       NewIDGenerator(cfg.CustomerID, cfg.IDAttempts),
		validator: NewValidationHelper(),
		logger:    logger.With(slog.String("component", "customers")),
	}
}

// CreateCustomer registers a customer under a freshly generated id.
func (s *CustomerService) CreateCustomer(ctx context.Context, c NewCustomer) (int64, error) {
	if err := s.validate(c); err != nil {
		return 0, err
	}

	var id int64
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		id, err = s.createTx(ctx, tx, c)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("customer created", slog.Int64("cust_id", id))
	return id, nil
}

// GetCustomer loads one customer.
func (s *CustomerService) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var c models.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT cust_id, cust_name, COALESCE(dob, ''), COALESCE(phone, ''), COALESCE(city, ''),
			COALESCE(address, ''), COALESCE(email, '')
		FROM customer
		WHERE cust_id = $1`, id).
		Scan(&c.ID, &c.Name, &c.DateOfBirth, &c.Phone, &c.City, &c.Address, &c.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: customer %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return &c, nil
}

func (s *CustomerService) validate(c NewCustomer) error {
	return s.validator.Check(c)
}

func (s *CustomerService) createTx(ctx context.Context, tx *sql.Tx, c NewCustomer) (int64, error) {
	id, err := s.ids.Next(ctx, tx, existsCustomerQuery)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO customer (cust_id, cust_name, dob, phone, city, address, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, c.Name, c.DateOfBirth, c.Phone, c.City, c.Address, c.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: customer id %d already taken", ErrConflict, id)
		}
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	return id, nil
}
