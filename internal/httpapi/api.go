// Package httpapi is the JSON boundary of the ledger service. Handlers stay
// thin: decode, call the domain layer, map errors onto the wire taxonomy.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"corebank.org/internal/access"
	"corebank.org/internal/account"
	"corebank.org/internal/approval"
	"corebank.org/internal/feed"
	"corebank.org/internal/identity"
	"corebank.org/internal/ledger"
	"corebank.org/internal/obs"
	"corebank.org/internal/report"
)

const maxBodyBytes = 1 << 20

// ReadyProbe reports readiness; it pings the archive database when one is
// configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries the rate-limit knobs for Handler.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// API is the HTTP layer over the domain services.
type API struct {
	mux *http.ServeMux

	users    *identity.Store
	accounts *account.Store
	engine   *ledger.Engine
	workflow *approval.Workflow
	control  *access.Control
	reports  *report.Service
	feed     *feed.Feed

	readyProbe ReadyProbe
	version    string
	opts       Options
}

func New(
	users *identity.Store,
	accounts *account.Store,
	engine *ledger.Engine,
	workflow *approval.Workflow,
	control *access.Control,
	reports *report.Service,
	liveFeed *feed.Feed,
	rp ReadyProbe,
	version string,
	opts Options,
) *API {
	a := &API{
		mux:        http.NewServeMux(),
		users:      users,
		accounts:   accounts,
		engine:     engine,
		workflow:   workflow,
		control:    control,
		reports:    reports,
		feed:       liveFeed,
		readyProbe: rp,
		version:    version,
		opts:       opts,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/api/auth/me", a.handleMe)

	// customer
	a.mux.HandleFunc("/api/customer/accounts", a.handleCustomerAccounts)
	a.mux.HandleFunc("/api/customer/transactions", a.handleCustomerTransactions)
	a.mux.HandleFunc("/api/customer/transfer", a.handleTransfer)
	a.mux.HandleFunc("/api/customer/statement/", a.handleStatement)

	// staff
	a.mux.HandleFunc("/api/staff/customers", a.handleCustomersCollection)
	a.mux.HandleFunc("/api/staff/customers/pending", a.handlePendingCustomers)
	a.mux.HandleFunc("/api/staff/customers/approve", a.handleApproveCustomer)
	a.mux.HandleFunc("/api/staff/deposit", a.handleDeposit)
	a.mux.HandleFunc("/api/staff/withdraw", a.handleWithdraw)
	a.mux.HandleFunc("/api/staff/accounts", a.handleOpenAccount)
	a.mux.HandleFunc("/api/staff/accounts/", a.handleCustomerAccountsForStaff)

	// admin
	a.mux.HandleFunc("/api/admin/staff", a.handleCreateStaff)
	a.mux.HandleFunc("/api/admin/users", a.handleListUsers)
	a.mux.HandleFunc("/api/admin/users/status", a.handleSetUserStatus)
	a.mux.HandleFunc("/api/admin/transactions", a.handleAdminTransactions)
	a.mux.HandleFunc("/api/admin/transactions/stream", a.handleTransactionStream)
	a.mux.HandleFunc("/api/admin/dashboard", a.handleDashboard)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	rps := a.opts.RateLimitRPS
	if rps <= 0 {
		rps = 50
	}
	burst := a.opts.RateLimitBurst
	if burst <= 0 {
		burst = 100
	}

	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, maxBodyBytes)
	h = Logging(h)
	h = RateLimit(h, rps, burst)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "corebank-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "corebank-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
