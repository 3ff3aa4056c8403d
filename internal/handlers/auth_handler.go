package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/timebank/backoffice/internal/middleware"
	"github.com/timebank/backoffice/internal/services"
)

// Authenticator checks credentials and manages session tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*services.Principal, error)
	IssueToken(p services.Principal) (string, time.Time, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	auth      Authenticator
	validator *services.ValidationHelper
	logger    *slog.Logger
}

func NewAuthHandler(auth Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		validator: services.NewValidationHelper(),
		logger:    logger,
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Employee  services.Principal `json:"employee"`
}

// Login authenticates an employee and issues a session token
// @Summary Employee login
// @Description Check username and password and return a bearer token carrying the dashboard role
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Check(req); err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	principal, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	token, expiresAt, err := h.auth.IssueToken(*principal)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, Employee: *principal})
}

// Logout revokes the presented token
// @Summary Logout
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool}
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		SendErrorResponse(w, "Authorization header required", http.StatusUnauthorized, nil)
		return
	}
	if err := h.auth.Logout(r.Context(), token); err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
