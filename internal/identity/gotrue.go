package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config configures a GoTrue client.
type Config struct {
	BaseURL        string
	AnonKey        string
	ServiceRoleKey string
	JWTSecret      string
	Timeout        time.Duration
}

// Client is a GoTrue REST client.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	jwtSecret  []byte
	httpClient *http.Client
}

// NewClient creates a client for the auth API under cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("identity base URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("identity anon key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:    base + "/auth/v1",
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceRoleKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.JWTSecret != "" {
		c.jwtSecret = []byte(cfg.JWTSecret)
	}
	return c, nil
}

// HasAdmin reports whether a service role key is configured.
func (c *Client) HasAdmin() bool {
	return c.serviceKey != ""
}

// VerifyToken resolves token to a user id. With a JWT secret the token is
// checked locally; otherwise the provider is asked.
func (c *Client) VerifyToken(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	if c.jwtSecret != nil {
		return c.verifyLocal(token)
	}

	var user userPayload
	err := c.do(ctx, http.MethodGet, "/user", nil, token, &user)
	if IsRejected(err) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", ErrInvalidToken
	}
	return user.ID, nil
}

func (c *Client) verifyLocal(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// SignUp creates an account with the user's name stored in its metadata.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (*Account, *Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": name},
	}

	// The provider answers with a session when email confirmation is off and
	// with the bare user otherwise.
	var resp struct {
		sessionPayload
		userPayload
	}
	if err := c.do(ctx, http.MethodPost, "/signup", body, c.anonKey, &resp); err != nil {
		return nil, nil, err
	}

	if resp.AccessToken != "" && resp.User != nil {
		session := resp.sessionPayload.session()
		return session.Account, session, nil
	}
	if resp.userPayload.ID == "" {
		return nil, nil, &APIError{Status: http.StatusBadGateway, Message: "signup response carried no user"}
	}
	return resp.userPayload.account(), nil, nil
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp sessionPayload
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", body, c.anonKey, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "token response carried no access token"}
	}
	return resp.session(), nil
}

// ConfirmEmail marks the user's email as confirmed.
func (c *Client) ConfirmEmail(ctx context.Context, userID string) error {
	if !c.HasAdmin() {
		return ErrAdminUnavailable
	}
	body := map[string]bool{"email_confirm": true}
	return c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(userID), body, c.serviceKey, nil)
}

// Account looks up a user by id.
func (c *Client) Account(ctx context.Context, userID string) (*Account, error) {
	if !c.HasAdmin() {
		return nil, ErrAdminUnavailable
	}
	var user userPayload
	if err := c.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(userID), nil, c.serviceKey, &user); err != nil {
		return nil, err
	}
	return user.account(), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, bearer string, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKeyFor(bearer))
	req.Header.Set("Authorization", "Bearer "+bearer)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("identity decode: %w", err)
	}
	return nil
}

// apiKeyFor picks the project key sent alongside bearer. Admin calls use the
// service key for both.
func (c *Client) apiKeyFor(bearer string) string {
	if c.serviceKey != "" && bearer == c.serviceKey {
		return c.serviceKey
	}
	return c.anonKey
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	apiErr := &APIError{Status: resp.StatusCode, Code: payload.ErrorCode}
	if apiErr.Code == "" {
		apiErr.Code = payload.Error
	}
	for _, msg := range []string{payload.Msg, payload.ErrorDescription, payload.Message, payload.Error} {
		if msg != "" {
			apiErr.Message = msg
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}

type userPayload struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	CreatedAt    time.Time      `json:"created_at"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u *userPayload) account() *Account {
	acc := &Account{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
	if name, ok := u.UserMetadata["name"].(string); ok {
		acc.Name = name
	}
	return acc
}

type sessionPayload struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         *userPayload `json:"user"`
}

func (s *sessionPayload) session() *Session {
	session := &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
	}
	if s.User != nil {
		session.Account = s.User.account()
	}
	return session
}

var _ Provider = (*Client)(nil)
