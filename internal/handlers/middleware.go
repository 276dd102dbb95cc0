package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/movievault/backend/internal/logging"
	"github.com/movievault/backend/internal/models"
	"github.com/movievault/backend/internal/repositories"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// UserFromContext retrieves the authenticated user stored by RequireAuth.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(currentUserKey).(models.User)
	return user, ok
}

// RequireAuth guards protected routes. It verifies the bearer token, then
// re-validates the subject against the user store so a token for a deleted or
// deactivated account stops working immediately despite being self-contained.
// Failures short-circuit with 401 before any handler runs.
func RequireAuth(users UserStore, tokens TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			header := r.Header.Get("Authorization")
			if header == "" {
				respondError(ctx, w, http.StatusUnauthorized, "authorization header is missing")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondError(ctx, w, http.StatusUnauthorized, "authorization header format must be Bearer {token}")
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				logger.Warn("token verification failed", "error", err)
				respondError(ctx, w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			user, err := users.FindByID(ctx, claims.Subject)
			if err != nil {
				if !errors.Is(err, repositories.ErrNotFound) {
					logger.Error("auth user lookup failed", "error", err)
					respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
					return
				}
				respondError(ctx, w, http.StatusUnauthorized, "user not found or inactive")
				return
			}
			if !user.Active {
				respondError(ctx, w, http.StatusUnauthorized, "user not found or inactive")
				return
			}

			ctx = context.WithValue(ctx, currentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
