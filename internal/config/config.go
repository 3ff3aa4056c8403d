package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime configuration for the back-office processes.
type Config struct {
	Env      string
	Port     string
	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	Ledger   LedgerConfig
	Reports  ReportsConfig
	Jobs     JobsConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Seed            bool
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// HTTPConfig tunes the API server.
type HTTPConfig struct {
	LoginRateLimit  int
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	SecretKey   string
	ExpiryHours int
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type LogConfig struct {
	Format string
	Level  string
}

// IDRange is an inclusive range used for generated identifiers.
type IDRange struct {
	Min int64
	Max int64
}

// LedgerConfig controls identifier generation and history paging.
type LedgerConfig struct {
	AccountNo      IDRange
	CustomerID     IDRange
	EmployeeID     IDRange
	IDAttempts     int
	HistoryDefault int
	HistoryMax     int
	Currency       string
}

type ReportsConfig struct {
	CacheTTL time.Duration
}

type JobsConfig struct {
	ReconcileCron string
}

var envBindings = map[string]string{
	"env":                    "APP_ENV",
	"port":                   "PORT",
	"http.login_rate_limit":  "HTTP_LOGIN_RATE_LIMIT",
	"http.shutdown_timeout":  "HTTP_SHUTDOWN_TIMEOUT",
	"http.allowed_origins":   "HTTP_ALLOWED_ORIGINS",
	"database.host":          "DATABASE_HOST",
	"database.port":          "DATABASE_PORT",
	"database.user":          "DATABASE_USER",
	"database.password":      "DATABASE_PASSWORD",
	"database.name":          "DATABASE_NAME",
	"database.ssl_mode":      "DATABASE_SSL_MODE",
	"database.seed":          "DATABASE_SEED",
	"redis.host":             "REDIS_HOST",
	"redis.port":             "REDIS_PORT",
	"redis.password":         "REDIS_PASSWORD",
	"redis.db":               "REDIS_DB",
	"jwt.secret_key":         "JWT_SECRET_KEY",
	"jwt.expiry_hours":       "JWT_EXPIRY_HOURS",
	"log.format":             "LOG_FORMAT",
	"log.level":              "LOG_LEVEL",
	"ledger.account_no_min":  "LEDGER_ACCOUNT_NO_MIN",
	"ledger.account_no_max":  "LEDGER_ACCOUNT_NO_MAX",
	"ledger.customer_id_min": "LEDGER_CUSTOMER_ID_MIN",
	"ledger.customer_id_max": "LEDGER_CUSTOMER_ID_MAX",
	"ledger.employee_id_min": "LEDGER_EMPLOYEE_ID_MIN",
	"ledger.employee_id_max": "LEDGER_EMPLOYEE_ID_MAX",
	"ledger.id_attempts":     "LEDGER_ID_ATTEMPTS",
	"ledger.history_default": "LEDGER_HISTORY_DEFAULT",
	"ledger.history_max":     "LEDGER_HISTORY_MAX",
	"ledger.currency":        "LEDGER_CURRENCY",
	"reports.cache_ttl":      "REPORTS_CACHE_TTL",
	"jobs.reconcile_cron":    "JOBS_RECONCILE_CRON",
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("http.login_rate_limit", 10)
	v.SetDefault("http.shutdown_timeout", 30*time.Second)
	v.SetDefault("http.allowed_origins", []string{"https://*", "http://*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "timebank")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Minute*5)
	v.SetDefault("database.seed", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.expiry_hours", 12)

	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")

	v.SetDefault("ledger.account_no_min", int64(1000000000))
	v.SetDefault("ledger.account_no_max", int64(9999999999))
	v.SetDefault("ledger.customer_id_min", int64(10000))
	v.SetDefault("ledger.customer_id_max", int64(99999))
	v.SetDefault("ledger.employee_id_min", int64(1000))
	v.SetDefault("ledger.employee_id_max", int64(9999))
	v.SetDefault("ledger.id_attempts", 10)
	v.SetDefault("ledger.history_default", 10)
	v.SetDefault("ledger.history_max", 100)
	v.SetDefault("ledger.currency", "ETB")

	v.SetDefault("reports.cache_ttl", time.Minute)
	v.SetDefault("jobs.reconcile_cron", "@every 1h")
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}
	// A missing .env is fine; the environment and defaults still apply.
	_ = v.ReadInConfig()

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Env:  v.GetString("env"),
		Port: v.GetString("port"),
		HTTP: HTTPConfig{
			LoginRateLimit:  v.GetInt("http.login_rate_limit"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			AllowedOrigins:  v.GetStringSlice("http.allowed_origins"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			Seed:            v.GetBool("database.seed"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey:   v.GetString("jwt.secret_key"),
			ExpiryHours: v.GetInt("jwt.expiry_hours"),
		},
		Log: LogConfig{
			Format: v.GetString("log.format"),
			Level:  v.GetString("log.level"),
		},
		Ledger: LedgerConfig{
			AccountNo:      IDRange{Min: v.GetInt64("ledger.account_no_min"), Max: v.GetInt64("ledger.account_no_max")},
			CustomerID:     IDRange{Min: v.GetInt64("ledger.customer_id_min"), Max: v.GetInt64("ledger.customer_id_max")},
			EmployeeID:     IDRange{Min: v.GetInt64("ledger.employee_id_min"), Max: v.GetInt64("ledger.employee_id_max")},
			IDAttempts:     v.GetInt("ledger.id_attempts"),
			HistoryDefault: v.GetInt("ledger.history_default"),
			HistoryMax:     v.GetInt("ledger.history_max"),
			Currency:       v.GetString("ledger.currency"),
		},
		Reports: ReportsConfig{
			CacheTTL: v.GetDuration("reports.cache_ttl"),
		},
		Jobs: JobsConfig{
			ReconcileCron: v.GetString("jobs.reconcile_cron"),
		},
	}
}

// IsProduction reports whether the process runs with production hardening.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("config: jwt secret key must be provided")
	}
	if c.JWT.ExpiryHours <= 0 {
		return errors.New("config: jwt expiry must be positive")
	}
	for name, r := range map[string]IDRange{
		"account number": c.Ledger.AccountNo,
		"customer id":    c.Ledger.CustomerID,
		"employee id":    c.Ledger.EmployeeID,
	} {
		if r.Min <= 0 || r.Max < r.Min {
			return fmt.Errorf("config: invalid %s range [%d, %d]", name, r.Min, r.Max)
		}
	}
	if c.HTTP.LoginRateLimit < 1 {
		return errors.New("config: login rate limit must be at least 1")
	}
	if c.Ledger.IDAttempts < 1 {
		return errors.New("config: ledger id attempts must be at least 1")
	}
	if c.Ledger.HistoryDefault < 1 || c.Ledger.HistoryMax < c.Ledger.HistoryDefault {
		return errors.New("config: invalid history limits")
	}
	return nil
}
