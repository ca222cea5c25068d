// Package identity talks to the hosted identity provider (a Supabase GoTrue
// compatible auth API).
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrInvalidToken is returned when an access token cannot be resolved to a
// user.
var ErrInvalidToken = errors.New("identity: invalid token")

// Account is an identity-provider user.
type Account struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Session is the result of a successful sign-in.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Account      *Account
}

// Provider is the identity provider as seen by the auth service.
type Provider interface {
	// VerifyToken resolves an access token to a user id.
	VerifyToken(ctx context.Context, token string) (string, error)

	// SignUp creates an account. The session is nil when the provider
	// requires email confirmation first.
	SignUp(ctx context.Context, email, password, name string) (*Account, *Session, error)

	// SignIn exchanges a password for a session.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// ConfirmEmail marks the account's email as confirmed. Admin only.
	ConfirmEmail(ctx context.Context, userID string) error

	// Account looks up an account by id. Admin only.
	Account(ctx context.Context, userID string) (*Account, error)

	// HasAdmin reports whether admin operations are available.
	HasAdmin() bool
}

// ErrAdminUnavailable is returned by admin operations without a service key.
var ErrAdminUnavailable = errors.New("identity: admin privileges not configured")

// APIError is a non-2xx answer from the provider.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity provider error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity provider error %d: %s", e.Status, e.Message)
}

// IsUserExists reports whether err says the email is already registered.
func IsUserExists(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case "user_already_exists", "email_exists":
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "already registered")
}

// IsRejected reports whether the provider refused the request because of
// its input (bad credentials, invalid email, weak password and so on).
func IsRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError &&
		apiErr.Status != http.StatusTooManyRequests
}
