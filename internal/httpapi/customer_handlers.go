package httpapi

import (
	"net/http"
	"strings"
	"time"

	"corebank.org/internal/money"
)

type transferRequest struct {
	FromAccountID   string       `json:"from_account_id"`
	ToAccountNumber string       `json:"to_account_number"`
	Amount          money.Amount `json:"amount"`
	Description     string       `json:"description"`
}

type listTransactionsResponse struct {
	Items any       `json:"items"`
	AsOf  time.Time `json:"as_of"`
}

func (a *API) handleCustomerAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}

	accounts, err := a.engine.AccountsFor(r.Context(), user)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (a *API) handleCustomerTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"), 100, 1, 1000)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}

	items, err := a.engine.ListTransactions(r.Context(), user, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listTransactionsResponse{Items: items, AsOf: time.Now().UTC()})
}

func (a *API) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FromAccountID) == "" || strings.TrimSpace(req.ToAccountNumber) == "" {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, "from_account_id and to_account_number are required")
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, r, http.StatusBadRequest, kindInvalidAmount, "amount must be > 0")
		return
	}

	tx, err := a.engine.Transfer(r.Context(), user, req.FromAccountID, strings.TrimSpace(req.ToAccountNumber), req.Amount, req.Description)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) handleStatement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	accountID := strings.TrimPrefix(r.URL.Path, "/api/customer/statement/")
	if accountID == "" || strings.Contains(accountID, "/") {
		writeError(w, r, http.StatusNotFound, kindAccountNotFound, "account not found")
		return
	}
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
	case "pdf":
		writeError(w, r, http.StatusNotImplemented, kindNotImplemented, "pdf rendering is not available")
		return
	default:
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, "format must be json or pdf")
		return
	}

	st, err := a.engine.Statement(r.Context(), user, accountID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
