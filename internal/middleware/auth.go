package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/uyho/backend/internal/auth"
)

// TokenValidator validates access tokens issued by the portal's auth service
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// Auth validates the JWT access token and puts the learner identity into the request context
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, "authentication required")
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			if claims.Email != "" {
				ctx = context.WithValue(ctx, userEmailKey, claims.Email)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header, falling back to the access_token cookie
func bearerToken(r *http.Request) string {
	if parts := strings.Split(r.Header.Get("Authorization"), " "); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}

// GetUserID retrieves the authenticated user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// GetUserEmail retrieves the authenticated user's e-mail from context, if the token carried one
func GetUserEmail(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey).(string)
	return email
}

// WithUserID returns a copy of ctx carrying userID, as the Auth middleware would
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
