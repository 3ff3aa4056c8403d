package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// PassbookPayload is encoded into the QR printed on an account passbook.
type PassbookPayload struct {
	AccountNo    int64  `json:"accountNo"`
	CustomerName string `json:"customerName"`
	AccountType  string `json:"accountType"`
	Currency     string `json:"currency"`
}

type QRService struct {
	db *sql.DB
}

func NewQRService(db *sql.DB) *QRService {
	return &QRService{db: db}
}

// AccountQR renders the passbook QR code of an account as PNG.
func (s *QRService) AccountQR(ctx context.Context, accountNo int64) ([]byte, error) {
	var payload PassbookPayload
	err := s.db.QueryRowContext(ctx, `
		SELECT a.account_no, c.cust_name, a.account_type, a.currency
		FROM accounts a
		JOIN customer c ON a.cust_id = c.cust_id
		WHERE a.account_no = $1`, accountNo).
		Scan(&payload.AccountNo, &payload.CustomerName, &payload.AccountType, &payload.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountNo)
	}
	if err != nil {
		return nil, fmt.Errorf("load passbook %d: %w", accountNo, err)
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.New(string(jsonData), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return qr.PNG(qrImageSize)
}
