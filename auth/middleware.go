package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type claimsKey struct{}

// WithClaims attaches validated claims to ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims attached by Require.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Require returns middleware that rejects requests without a valid token
// carrying scope. onError writes the rejection.
func Require(cfg Config, scope string, onError func(w http.ResponseWriter, status int, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="resumeflow"`)
				onError(w, http.StatusUnauthorized, err)
				return
			}
			claims, err := Validate(cfg, token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="resumeflow", error="invalid_token"`)
				onError(w, http.StatusUnauthorized, err)
				return
			}
			if !claims.HasScope(scope) {
				onError(w, http.StatusForbidden, errors.Join(ErrInsufficientScope, errors.New(scope)))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
