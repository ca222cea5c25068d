// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/civic-ai/civic-backend/internal/model"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
	"github.com/civic-ai/civic-backend/pkg/logger"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserKey is the context key for the authenticated user.
	UserKey ContextKey = "user"
)

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Auth creates bearer token authentication middleware.
func Auth(authn Authenticator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, err)
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if apperrors.CodeOf(err) == apperrors.CodeInternal {
					log.Error("authentication failed", zap.Error(err))
				}
				writeError(w, err)
				return
			}

			if info := requestInfoFrom(r.Context()); info != nil {
				info.userID = user.ID
			}
			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.ErrMissingToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.ErrInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// GetUser returns the authenticated user, or nil.
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserKey).(*model.User)
	return user
}

// GetUserID returns the authenticated user's id, or "".
func GetUserID(ctx context.Context) string {
	if user := GetUser(ctx); user != nil {
		return user.ID
	}
	return ""
}

// writeError renders err in the API's error format.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code.HTTPStatus())
	json.NewEncoder(w).Encode(map[string]string{
		"error": apperrors.PublicMessage(err),
		"code":  string(code),
	})
}
