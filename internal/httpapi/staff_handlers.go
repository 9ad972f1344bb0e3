package httpapi

import (
	"context"
	"net/http"
	"strings"

	"corebank.org/internal/access"
	"corebank.org/internal/account"
	"corebank.org/internal/audit"
	"corebank.org/internal/identity"
	"corebank.org/internal/ledger"
	"corebank.org/internal/money"
)

// cashOp is the shared shape of Deposit and Withdraw.
type cashOp func(ctx context.Context, actor *identity.User, accountID string, amount money.Amount, desc string) (*ledger.Transaction, error)

type createCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type approveCustomerRequest struct {
	UserID  string `json:"user_id"`
	Approve bool   `json:"approve"`
}

type cashRequest struct {
	AccountID   string       `json:"account_id"`
	Amount      money.Amount `json:"amount"`
	Description string       `json:"description"`
}

type openAccountRequest struct {
	CustomerID     string       `json:"customer_id"`
	AccountType    string       `json:"account_type"`
	InitialBalance money.Amount `json:"initial_balance"`
}

func (a *API) handleCustomersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listCustomers(w, r)
	case http.MethodPost:
		a.createCustomer(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listCustomers(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := a.control.Authorize(user, access.OpListCustomers); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": a.users.ListCustomers(r.Context())})
}

func (a *API) createCustomer(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := a.control.Authorize(user, access.OpCreateCustomer); err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req createCustomerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}

	created, profile, err := a.users.CreateCustomer(r.Context(), req.Name, req.Email, req.Password, req.Phone, req.Address, user.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "customer.create", map[string]any{
		"user_id":     created.ID,
		"customer_id": profile.ID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":     created,
		"customer": profile,
	})
}

func (a *API) handlePendingCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}

	pending, err := a.workflow.Pending(r.Context(), user)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

func (a *API) handleApproveCustomer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req approveCustomerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, "user_id is required")
		return
	}

	decide := a.workflow.Reject
	if req.Approve {
		decide = a.workflow.Approve
	}
	profile, err := decide(r.Context(), user, req.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) handleDeposit(w http.ResponseWriter, r *http.Request) {
	a.handleCash(w, r, a.engine.Deposit)
}

func (a *API) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	a.handleCash(w, r, a.engine.Withdraw)
}

func (a *API) handleCash(w http.ResponseWriter, r *http.Request, op cashOp) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req cashRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.AccountID) == "" {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, "account_id is required")
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, r, http.StatusBadRequest, kindInvalidAmount, "amount must be > 0")
		return
	}

	tx, err := op(r.Context(), user, req.AccountID, req.Amount, req.Description)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) handleOpenAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req openAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, "customer_id is required")
		return
	}
	typ, ok2 := account.ParseType(req.AccountType)
	if !ok2 {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, "account_type must be savings or checking")
		return
	}

	acc, err := a.engine.OpenAccount(r.Context(), user, req.CustomerID, typ, req.InitialBalance)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (a *API) handleCustomerAccountsForStaff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	customerID := strings.TrimPrefix(r.URL.Path, "/api/staff/accounts/")
	if customerID == "" || strings.Contains(customerID, "/") {
		writeError(w, r, http.StatusNotFound, kindNotFound, "customer not found")
		return
	}

	accounts, err := a.engine.AccountsForCustomer(r.Context(), user, customerID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}
