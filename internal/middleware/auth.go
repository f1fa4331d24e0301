package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"account-service/internal/account"
	"account-service/internal/session"
)

// unexported, collision-proof context key
type principalContextKeyType struct{}

var principalKey = principalContextKeyType{}

// PrincipalFromContext extracts the resolved principal from context.
func PrincipalFromContext(ctx context.Context) (account.Principal, bool) {
	p, ok := ctx.Value(principalKey).(account.Principal)
	return p, ok
}

// ContextWithPrincipal returns a copy of ctx carrying the principal.
func ContextWithPrincipal(ctx context.Context, p account.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// ClaimsVerifier validates a bearer identity token and returns its raw
// claim set.
type ClaimsVerifier interface {
	VerifyBearer(ctx context.Context, rawToken string) (map[string]any, error)
}

type AuthMiddleware struct {
	Store    session.Store
	Verifier ClaimsVerifier
}

func NewAuthMiddleware(store session.Store, verifier ClaimsVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		Store:    store,
		Verifier: verifier,
	}
}

// ResolvePrincipal attaches a principal to the request context when one can
// be established: a claims-bearing principal for a valid bearer token, an
// opaque one for a valid session cookie. It never rejects; unresolvable
// requests continue without a principal and downstream handlers decide.
func (a *AuthMiddleware) ResolvePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := a.bearerPrincipal(r); ok {
			next.ServeHTTP(w, r.WithContext(
				ContextWithPrincipal(r.Context(), p)))
			return
		}

		if p, ok := a.sessionPrincipal(r); ok {
			next.ServeHTTP(w, r.WithContext(
				ContextWithPrincipal(r.Context(), p)))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *AuthMiddleware) bearerPrincipal(r *http.Request) (account.Principal, bool) {
	if a.Verifier == nil {
		return nil, false
	}

	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || raw == "" {
		return nil, false
	}

	claims, err := a.Verifier.VerifyBearer(r.Context(), raw)
	if err != nil {
		return nil, false
	}

	return account.ClaimsPrincipal{
		Claims:      claims,
		Authorities: rolesClaim(claims),
	}, true
}

func (a *AuthMiddleware) sessionPrincipal(r *http.Request) (account.Principal, bool) {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	sess, err := a.Store.Get(r.Context(), cookie.Value)
	if err != nil || sess == nil {
		return nil, false
	}

	// enforce session expiry
	if time.Now().After(sess.ExpiresAt) {
		_ = a.Store.Delete(r.Context(), cookie.Value)
		return nil, false
	}

	return account.LocalPrincipal{Login: sess.Login}, true
}

// rolesClaim maps the token's roles claim to the authorities granted by the
// authentication layer itself. The account reconciler may override these
// with a groups claim.
func rolesClaim(claims map[string]any) []string {
	raw, ok := claims["roles"].([]any)
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}
