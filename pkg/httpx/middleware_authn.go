package httpx

import (
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

// TokenVerifier turns a raw bearer token into the caller it was issued to.
type TokenVerifier interface {
	VerifyAccessToken(raw string) (Principal, error)
}

// AuthnMiddleware rejects requests without a valid bearer access token and
// stores the resolved Principal in the request context.
func AuthnMiddleware(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			p, err := v.VerifyAccessToken(raw)
			if err != nil {
				writeBearerError(w, "token verification failed")
				log.Debug("access token rejected", "err", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithPrincipal(ctx, p)))
		})
	}
}

// RequireRole lets the request through only when the caller has one of roles.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, RoleFromContext(r.Context())) {
				WriteError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750 style challenge, with the JSON envelope clients parse.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, desc)
}
