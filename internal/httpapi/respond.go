package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"corebank.org/internal/access"
	"corebank.org/internal/account"
	"corebank.org/internal/audit"
	"corebank.org/internal/identity"
	"corebank.org/internal/ledger"
	"corebank.org/internal/money"
)

// Machine-readable error kinds. "busy" is the only retryable kind; clients
// may repeat the identical request after the Retry-After delay.
const (
	kindInvalidAmount     = "invalid_amount"
	kindInsufficientFunds = "insufficient_funds"
	kindAccountNotFound   = "account_not_found"
	kindInvalidTransfer   = "invalid_transfer"
	kindForbidden         = "forbidden"
	kindAccountBlocked    = "account_blocked"
	kindInvalidState      = "invalid_state"
	kindBusy              = "busy"
	kindNotFound          = "not_found"
	kindInvalidRequest    = "invalid_request"
	kindUnauthorized      = "unauthorized"
	kindNotImplemented    = "not_implemented"
	kindInternal          = "internal"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, kind, detail string) {
	payload := map[string]any{
		"error":  kind,
		"detail": detail,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// handleServiceError maps domain sentinels onto the wire taxonomy. Unmapped
// errors surface as 500 without leaking internals.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, money.ErrInvalidAmount):
		writeError(w, r, http.StatusBadRequest, kindInvalidAmount, err.Error())
	case errors.Is(err, account.ErrInsufficientFunds):
		writeError(w, r, http.StatusConflict, kindInsufficientFunds, err.Error())
	case errors.Is(err, account.ErrNotFound):
		writeError(w, r, http.StatusNotFound, kindAccountNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidTransfer):
		writeError(w, r, http.StatusBadRequest, kindInvalidTransfer, err.Error())
	case errors.Is(err, access.ErrAccountBlocked):
		writeError(w, r, http.StatusForbidden, kindAccountBlocked, err.Error())
	case errors.Is(err, access.ErrForbidden):
		writeError(w, r, http.StatusForbidden, kindForbidden, err.Error())
	case errors.Is(err, account.ErrClosed), errors.Is(err, identity.ErrInvalidState):
		writeError(w, r, http.StatusConflict, kindInvalidState, err.Error())
	case errors.Is(err, account.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeError(w, r, http.StatusServiceUnavailable, kindBusy, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, kindUnauthorized, err.Error())
	case errors.Is(err, identity.ErrEmailTaken), errors.Is(err, identity.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
	case errors.Is(err, identity.ErrNotFound):
		writeError(w, r, http.StatusNotFound, kindNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, kindInternal, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, kindInvalidRequest, "method not allowed")
}

func parseLimit(raw string, def, min, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	if val < min || val > max {
		return 0, errors.New("limit must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max))
	}
	return val, nil
}
