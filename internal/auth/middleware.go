package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jivhala-motors/backoffice/internal/domain"
)

// UserResolver loads the user behind a verified token. Resolving on every
// request means deactivated users lose access immediately, not at token
// expiry.
type UserResolver interface {
	ResolveUser(ctx context.Context, userID int64) (*domain.User, error)
}

type contextKey string

const userContextKey contextKey = "auth.user"

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

// WithUser returns a context carrying the given user. Exposed for tests.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// Middleware returns a middleware that requires a valid Bearer token and
// injects the resolved user into the request context.
func Middleware(issuer *TokenIssuer, resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				unauthorized(w, "Authorization token required")
				return
			}

			claims, err := issuer.Verify(tokenString)
			if err != nil {
				if err == ErrTokenExpired {
					unauthorized(w, "Token expired")
					return
				}
				unauthorized(w, "Invalid token")
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				unauthorized(w, "Invalid token")
				return
			}

			user, err := resolver.ResolveUser(r.Context(), userID)
			if err != nil {
				log.Debug().Err(err).Int64("user_id", userID).Msg("token user rejected")
				unauthorized(w, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrNoToken
	}
	return parts[1], nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
