package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/timebank/backoffice/internal/config"
	"github.com/timebank/backoffice/internal/models"
)

// ErrTokenRevoked indicates the token was logged out.
var ErrTokenRevoked = errors.New("token revoked")

// Principal is an authenticated employee with a dashboard role.
type Principal struct {
	EmployeeID   int64       `json:"employeeId"`
	Name         string      `json:"name"`
	DepartmentID int64       `json:"departmentId"`
	Role         models.Role `json:"role"`
}

// Claims are carried in every session token.
type Claims struct {
	EmployeeID int64       `json:"emp_id"`
	Role       models.Role `json:"role"`
	Name       string      `json:"name"`
	jwt.RegisteredClaims
}

type AuthService struct {
	db     *sql.DB
	redis  *redis.Client
	secret []byte
	expiry time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, cfg config.JWTConfig, logger *slog.Logger) *AuthService {
	return &AuthService{
		db:     db,
		redis:  redisClient,
		secret: []byte(cfg.SecretKey),
		expiry: cfg.Expiry(),
		logger: logger.With(slog.String("component", "auth")),
		now:    time.Now,
	}
}

// Authenticate checks a username and password and resolves the employee's role.
// Passwords are stored and compared as given.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	var (
		p     Principal
		depID sql.NullInt64
		title sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT emp_id, emp_name, dep_id, job_title
		FROM employee
		WHERE username = $1 AND passwords = $2`, username, password).
		Scan(&p.EmployeeID, &p.Name, &depID, &title)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("login rejected", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !title.Valid {
		s.logger.Warn("login by terminated employee", slog.Int64("emp_id", p.EmployeeID))
		return nil, ErrInvalidCredentials
	}

	p.DepartmentID = depID.Int64
	p.Role = models.RoleForDepartment(depID.Int64)
	if p.Role == models.RoleNone {
		return nil, fmt.Errorf("%w: department %d", ErrNoRole, depID.Int64)
	}

	s.logger.Info("login", slog.Int64("emp_id", p.EmployeeID), slog.String("role", string(p.Role)))
	return &p, nil
}

// IssueToken signs an HS256 session token for p.
func (s *AuthService) IssueToken(p Principal) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)
	claims := Claims{
		EmployeeID: p.EmployeeID,
		Role:       p.Role,
		Name:       p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken validates a session token and rejects logged-out ones and
// tokens of employees fired since the token was issued.
func (s *AuthService) ParseToken(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		n, err := s.redis.Exists(ctx, blacklistKey(claims.ID)).Result()
		if err != nil {
			return nil, fmt.Errorf("check blacklist: %w", err)
		}
		if n > 0 {
			return nil, ErrTokenRevoked
		}
	}

	// Firing clears job_title; tokens issued before that stop working at once.
	var active bool
	err = s.db.QueryRowContext(ctx, `SELECT job_title IS NOT NULL FROM employee WHERE emp_id = $1`, claims.EmployeeID).
		Scan(&active)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
		s.logger.Warn("token of terminated employee rejected", slog.Int64("emp_id", claims.EmployeeID))
		return nil, fmt.Errorf("%w: employee %d is no longer active", ErrInvalidCredentials, claims.EmployeeID)
	}
	if err != nil {
		return nil, fmt.Errorf("check employee status: %w", err)
	}
	return claims, nil
}

// Logout blacklists the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if s.redis == nil {
		s.logger.Warn("logout without redis, token stays valid until expiry", slog.Int64("emp_id", claims.EmployeeID))
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, blacklistKey(claims.ID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	s.logger.Info("logout", slog.Int64("emp_id", claims.EmployeeID))
	return nil
}

func (s *AuthService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: token has no id", ErrInvalidCredentials)
	}
	return claims, nil
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}
