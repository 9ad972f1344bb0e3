package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"corebank.org/internal/access"
	"corebank.org/internal/identity"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, kindUnauthorized, err.Error())
			return
		}
		claims, err := ParseAndValidate(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, kindUnauthorized, "invalid token")
			return
		}

		// Re-load the user so a block or role change takes effect on the
		// next request, not at token expiry.
		user, err := a.users.Find(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				writeError(w, r, http.StatusUnauthorized, kindUnauthorized, "unknown user")
				return
			}
			writeError(w, r, http.StatusInternalServerError, kindInternal, "authentication error")
			return
		}

		ctx := access.ContextWithPrincipal(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principal returns the authenticated user or writes a 401 and reports false.
func principal(w http.ResponseWriter, r *http.Request) (*identity.User, bool) {
	u, ok := access.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, kindUnauthorized, "authentication required")
		return nil, false
	}
	return u, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
