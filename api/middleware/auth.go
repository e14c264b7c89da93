// ABOUTME: GoogleLogin token authentication for the reader API
// ABOUTME: Resolves the Authorization header to a user and stores it in context

package middleware

import (
	"context"
	"net/http"
	"strings"

	"yana/core/auth"
	"yana/core/domain"
)

type userKey struct{}
type tokenKey struct{}

// authPrefix is the GReader authorization scheme
const authPrefix = "GoogleLogin auth="

// Authenticate rejects requests without a valid login token and stores the
// user plus the raw token in the request context.
func Authenticate(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromHeader(r.Header.Get("Authorization"))
			if token == "" {
				unauthorized(w)
				return
			}

			user, err := authSvc.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "Error=Internal", http.StatusInternalServerError)
				return
			}
			if user == nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, user)
			ctx = context.WithValue(ctx, tokenKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom returns the authenticated user stored by Authenticate
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey{}).(*domain.User)
	return user
}

// TokenFrom returns the raw login token stored by Authenticate
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func tokenFromHeader(header string) string {
	if !strings.HasPrefix(header, authPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, authPrefix))
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, "Error=AuthRequired", http.StatusUnauthorized)
}
