package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
)

// PassbookQR renders the QR code printed on an account passbook.
type PassbookQR interface {
	AccountQR(ctx context.Context, accountNo int64) ([]byte, error)
}

type QRHandler struct {
	service PassbookQR
	logger  *slog.Logger
}

func NewQRHandler(service PassbookQR, logger *slog.Logger) *QRHandler {
	return &QRHandler{service: service, logger: logger}
}

// AccountQR returns the passbook QR code of an account
// @Summary Account QR code
// @Description PNG QR code encoding the account number, holder name, account type and currency
// @Tags QR
// @Produce png
// @Security BearerAuth
// @Param accountNo path int true "Account number"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountNo}/qr [get]
func (h *QRHandler) AccountQR(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := idParam(w, r, "accountNo")
	if !ok {
		return
	}

	png, err := h.service.AccountQR(r.Context(), accountNo)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
