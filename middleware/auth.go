package middleware

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"riskregister/models"
	"riskregister/store"
	"riskregister/utils"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// UserFromContext returns the authenticated user placed by AuthMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok
}

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// AuthMiddleware validates the bearer token and loads the user record so
// downstream handlers always see a live account, not just claims.
func AuthMiddleware(st store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// WebSocket upgrades carry the token in the query string and
			// authenticate in the stream handler
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := utils.ValidateJWT(tokenString)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			userID, err := strconv.ParseInt(claims.UserID, 10, 64)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid user id in token")
				return
			}

			user, err := st.GetUser(r.Context(), userID)
			if err != nil {
				log.Printf("AuthMiddleware: user %d from valid token not found: %v", userID, err)
				utils.RespondWithError(w, http.StatusUnauthorized, "User not found")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}
