package http

import (
	"context"
	"net/http"
	"strings"
)

// TokenVerifier resolves a bearer credential into a user id. The JWT
// implementation lives in internal/auth; handlers only see the port.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

type contextKey string

const userIDKey contextKey = "user_id"

// UserID returns the authenticated user id, or "" outside an authenticated
// request.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// requireAuth resolves the Authorization header through the verifier and
// stores the user id in the request context. Missing or unverifiable
// credentials end the request with 401.
func requireAuth(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error: "unauthorized", Message: "missing bearer token",
			})
			return
		}

		userID, err := verifier.VerifyToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error: "unauthorized", Message: "invalid bearer token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
