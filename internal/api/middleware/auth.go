// Package middleware carries the HTTP-layer concerns ambient to every
// request (auth, CORS), per SPEC_FULL.md §4.12. Grounded directly on
// the teacher's internal/api/middleware/auth_middleware.go, generalized
// only by renaming the secret's env var from the teacher's Supabase-
// specific SUPABASE_JWT_SECRET to AUTH_JWT_SECRET now that there is no
// Supabase-backed user table underneath it.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type userIDKey struct{}

// GetUserIDFromContext retrieves the authenticated user id set by
// AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	return userID, ok
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// AuthMiddleware validates a Bearer JWT and stores its subject claim in
// the request context, or mints a fresh identity when BYPASS_AUTH=true.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if os.Getenv("BYPASS_AUTH") == "true" {
			testUserID := uuid.NewString()
			log.Printf("[auth] BYPASS_AUTH enabled, generated test user id: %s", testUserID)
			ctx := context.WithValue(r.Context(), userIDKey{}, testUserID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
			return
		}

		jwtSecret := os.Getenv("AUTH_JWT_SECRET")
		if jwtSecret == "" {
			log.Println("[auth] AUTH_JWT_SECRET environment variable is not set")
			writeJSONError(w, http.StatusInternalServerError, "server configuration error: JWT secret missing")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		userID, ok := claims["sub"].(string)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "invalid token: missing user id")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
