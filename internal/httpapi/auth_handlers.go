package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"corebank.org/internal/audit"
	"corebank.org/internal/identity"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, "email and password are required")
		return
	}

	user, err := a.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	token, err := GenerateToken(user.ID, string(user.Role), tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, kindInternal, "token generation failed")
		return
	}
	session, err := a.users.RecordLogin(r.Context(), user.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":    user.ID,
		"session_id": session.ID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"user":    user,
		"session": session,
	})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return
	}

	user, profile, err := a.users.RegisterCustomer(r.Context(), req.Name, req.Email, req.Password, req.Phone, req.Address)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id":     user.ID,
		"customer_id": profile.ID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":     user,
		"customer": profile,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}

	session, err := a.users.RecordLogout(r.Context(), user.ID)
	if err != nil && !errors.Is(err, identity.ErrNotFound) {
		handleServiceError(w, r, err)
		return
	}
	fields := map[string]any{"user_id": user.ID}
	if session != nil {
		fields["session_id"] = session.ID
	}
	audit.LogEvent(r.Context(), "auth.logout", fields)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := principal(w, r)
	if !ok {
		return
	}

	resp := map[string]any{"user": user}
	if user.Role == identity.RoleCustomer {
		if profile, err := a.users.CustomerByUser(r.Context(), user.ID); err == nil {
			resp["customer"] = profile
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
