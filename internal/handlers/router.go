package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/timebank/backoffice/internal/middleware"
	"github.com/timebank/backoffice/internal/models"
)

// RouterDeps collects everything the API routes call into.
type RouterDeps struct {
	Auth       Authenticator
	Tokens     middleware.TokenParser
	Ledger     Ledger
	Customers  Customers
	Staff      Staff
	Reports    Reports
	Reconciler Reconciler
	Reference  Reference
	QR         PassbookQR
	Logger     *slog.Logger

	Production     bool
	LoginRateLimit int
	AllowedOrigins []string
}

// NewRouter wires the back-office API.
func NewRouter(deps RouterDeps) http.Handler {
	authHandler := NewAuthHandler(deps.Auth, deps.Logger)
	accountHandler := NewAccountHandler(deps.Ledger, deps.Customers, deps.Logger)
	qrHandler := NewQRHandler(deps.QR, deps.Logger)
	employeeHandler := NewEmployeeHandler(deps.Staff, deps.Logger)
	reportHandler := NewReportHandler(deps.Reports, deps.Reconciler, deps.Reference, deps.Logger)

	apiRoutes := func(r chi.Router) {
		r.With(middleware.LoginRateLimit(deps.LoginRateLimit)).Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(deps.Tokens))

			r.Get("/branches", reportHandler.ListBranches)
			r.Get("/departments", reportHandler.ListDepartments)

			// Account reads are shared with managers.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAccountant, models.RoleManager))
				r.Get("/accounts/search", accountHandler.SearchAccount)
				r.Get("/accounts/{accountNo}/balance", accountHandler.GetBalance)
				r.Get("/accounts/{accountNo}/transactions", accountHandler.GetTransactions)
				r.Get("/accounts/{accountNo}/loans", accountHandler.ListLoans)
				r.Get("/customers/{custId}", accountHandler.GetCustomer)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAccountant))
				r.Post("/customers", accountHandler.CreateCustomer)
				r.Post("/accounts", accountHandler.OpenAccount)
				r.Post("/accounts/with-customer", accountHandler.OpenCustomerAccount)
				r.Post("/accounts/{accountNo}/deposit", accountHandler.Deposit)
				r.Post("/accounts/{accountNo}/withdraw", accountHandler.Withdraw)
				r.Put("/accounts/{accountNo}/status", accountHandler.SetStatus)
				r.Get("/accounts/{accountNo}/qr", qrHandler.AccountQR)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleHR, models.RoleManager))
				r.Get("/employees", employeeHandler.ListEmployees)
				r.Get("/employees/{empId}/actions", employeeHandler.ListActions)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleHR))
				r.Post("/employees", employeeHandler.HireEmployee)
				r.Post("/employees/{empId}/fire", employeeHandler.FireEmployee)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleManager))
				r.Get("/reports/overview", reportHandler.Overview)
				r.Get("/reports/transactions", reportHandler.RecentTransactions)
				r.Get("/reports/actions", reportHandler.RecentActions)
				r.Get("/reports/reconciliation", reportHandler.Reconciliation)
				r.Get("/reports/reconciliation/{accountNo}", reportHandler.VerifyAccount)
			})
		})
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.DocsSecurityHeaders(deps.Production))
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders(deps.Production))
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		})
		r.Route("/api/v1", apiRoutes)
	})

	return r
}
