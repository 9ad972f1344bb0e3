package access

import (
	"context"

	"corebank.org/internal/identity"
)

type ctxKey string

const principalKey ctxKey = "access_principal"

// ContextWithPrincipal stores the authenticated user in the context.
func ContextWithPrincipal(ctx context.Context, u *identity.User) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey, u)
}

// PrincipalFromContext extracts the authenticated user, if present.
func PrincipalFromContext(ctx context.Context) (*identity.User, bool) {
	u, ok := ctx.Value(principalKey).(*identity.User)
	return u, ok && u != nil
}

// UserIDFromContext returns the authenticated user id for log enrichment.
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := PrincipalFromContext(ctx)
	if !ok {
		return "", false
	}
	return u.ID, true
}
