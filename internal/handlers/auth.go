package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gatherly/apiserver/internal/auth"
)

// RequireAuth returns middleware that converts a bearer token into a
// verified identity in the request context. A missing credential and an
// invalid or expired one produce the same 401 response; callers cannot
// tell which check failed.
func RequireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			identity, err := auth.VerifyToken(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), contextIdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Any other shape is treated as absent.
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("malformed authorization header")
	}
	return parts[1], nil
}
