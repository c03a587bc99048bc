package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"interprep/pkg/claims"
)

// CheckJWT admits requests whose bearer token verifies against secret and
// carries the wanted type claim.
func CheckJWT(secret, tokenType string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w, "Missing Authorization Header", "Request does not contain an access token")
				return
			}

			c, err := claims.Verify(strings.TrimPrefix(auth, "Bearer "), secret)
			if err != nil {
				logger.Debug("rejected token", "path", r.URL.Path, "error", err)
				unauthorized(w, "Token is invalid or has expired", err.Error())
				return
			}

			if c.Type != tokenType {
				if tokenType == claims.TypeRefresh {
					unauthorized(w, "Only refresh tokens are allowed", "Send the refresh token to this endpoint")
				} else {
					unauthorized(w, "Only non-refresh tokens are allowed", "Send the access token to this endpoint")
				}
				return
			}

			ctx := context.WithValue(r.Context(), claims.TokenContextKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message, "details": details})
}
