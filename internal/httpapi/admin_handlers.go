package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"corebank.org/internal/access"
	"corebank.org/internal/audit"
	"corebank.org/internal/identity"
)

type createStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type setUserStatusRequest struct {
	UserID string `json:"user_id"`
	Active bool   `json:"is_active"`
}

func (a *API) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := a.control.Authorize(user, access.OpCreateStaff); err != nil {
		handleServiceError(w, r, err)
		return
	}
	var req createStaffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}

	created, err := a.users.CreateUser(r.Context(), req.Name, req.Email, req.Password, identity.RoleStaff, true, user.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "staff.create", map[string]any{"user_id": created.ID})
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := a.control.Authorize(user, access.OpListUsers); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": a.users.ListUsers(r.Context())})
}

func (a *API) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	var req setUserStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, "user_id is required")
		return
	}

	updated, err := a.control.SetUserStatus(r.Context(), user, req.UserID, req.Active)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "user.status", map[string]any{
		"user_id":   updated.ID,
		"is_active": updated.Active,
	})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleAdminTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := a.control.Authorize(user, access.OpViewAllLedger); err != nil {
		handleServiceError(w, r, err)
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

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}

	snap, err := a.reports.Snapshot(r.Context(), user)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleTransactionStream pushes committed transactions over Server-Sent
// Events.
func (a *API) handleTransactionStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}
	if err := a.control.Authorize(user, access.OpViewAllLedger); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if a.feed == nil {
		writeError(w, r, http.StatusServiceUnavailable, kindNotImplemented, "streaming disabled")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, kindInternal, "streaming unsupported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := a.feed.Subscribe(ctx)

	// Send an initial comment to establish the stream
	_, _ = w.Write([]byte(": stream started\n\n"))
	flusher.Flush()

	for event := range ch {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}
}
