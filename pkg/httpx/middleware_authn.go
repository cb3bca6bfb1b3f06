package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/glimpse-social/glimpse/pkg/jwtx"
	"github.com/glimpse-social/glimpse/pkg/slogx"
)

// AuthnMiddleware verifies the bearer access token and injects its claims
// into the request context. Verification is signature+expiry only: ban and
// deletion state are NOT consulted here, so a revoked account keeps working
// for at most the access token's remaining lifetime. The refresh endpoint
// is where those checks bite.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
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

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, CtxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth, wrapped in the API's
// JSON envelope so clients have one error shape to parse.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, desc)
}
