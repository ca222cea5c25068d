package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/civic-ai/civic-backend/internal/identity"
	"github.com/civic-ai/civic-backend/internal/model"
	"github.com/civic-ai/civic-backend/internal/store"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
	"github.com/civic-ai/civic-backend/pkg/logger"
)

const minPasswordLength = 6

// Messages returned with AuthResponse.
const (
	MessageSignedUp     = "User created successfully"
	MessageConfirmEmail = "User created. Please confirm your email address before logging in."
	MessageLoggedIn     = "Login successful"
)

// AuthService is the identity gateway: it resolves bearer tokens to
// profiles and provisions accounts.
type AuthService struct {
	provider identity.Provider
	profiles *store.Conversations
	logger   *logger.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(provider identity.Provider, profiles *store.Conversations, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthService{
		provider: provider,
		profiles: profiles,
		logger:   log,
	}
}

// Authenticate resolves token to the caller's mirrored profile.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.ErrMissingToken
	}

	userID, err := s.provider.VerifyToken(ctx, token)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidToken) {
			s.logger.Warn("token verification failed", zap.Error(err))
		}
		return nil, apperrors.ErrInvalidToken
	}

	return s.profiles.Profile(ctx, userID)
}

// SignUp creates an identity account and its mirrored profile.
func (s *AuthService) SignUp(ctx context.Context, req *model.SignupRequest) (*model.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email, err := validateCredentials(req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.BadRequest("name is required")
	}

	account, session, err := s.provider.SignUp(ctx, email, req.Password, name)
	switch {
	case err == nil:
	case identity.IsUserExists(err):
		return nil, apperrors.ErrEmailTaken
	case identity.IsRejected(err):
		return nil, apperrors.BadRequest(rejectionMessage(err))
	default:
		s.logger.Error("identity signup failed", zap.String("email", email), zap.Error(err))
		return nil, apperrors.ErrSignupFailed(err)
	}

	if s.provider.HasAdmin() {
		if err := s.provider.ConfirmEmail(ctx, account.ID); err != nil {
			s.logger.Warn("email auto-confirm failed", zap.String("user_id", account.ID), zap.Error(err))
		}
		if session == nil {
			session, err = s.provider.SignIn(ctx, email, req.Password)
			if err != nil {
				s.logger.Warn("login after signup failed", zap.String("user_id", account.ID), zap.Error(err))
			}
		}
	}

	user := &model.User{
		ID:        account.ID,
		Email:     email,
		Name:      name,
		CreatedAt: account.CreatedAt,
	}
	if err := s.profiles.CreateProfile(ctx, user); err != nil {
		// The identity account is left in place.
		s.logger.Error("failed to create profile after signup",
			zap.String("user_id", account.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))

	resp := &model.AuthResponse{User: user, Message: MessageConfirmEmail}
	if session != nil && session.AccessToken != "" {
		resp.AccessToken = session.AccessToken
		resp.Message = MessageSignedUp
	}
	return resp, nil
}

// Login exchanges credentials for an access token.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, apperrors.BadRequest("email and password are required")
	}

	session, err := s.provider.SignIn(ctx, email, req.Password)
	if err != nil {
		if identity.IsRejected(err) {
			return nil, apperrors.ErrInvalidCredentials
		}
		s.logger.Error("identity login failed", zap.Error(err))
		return nil, apperrors.ErrLoginFailed(err)
	}

	user := s.loginProfile(ctx, session)
	return &model.AuthResponse{
		AccessToken: session.AccessToken,
		User:        user,
		Message:     MessageLoggedIn,
	}, nil
}

// loginProfile prefers the mirrored profile and falls back to the provider's
// account data.
func (s *AuthService) loginProfile(ctx context.Context, session *identity.Session) *model.User {
	account := session.Account
	if account == nil || account.ID == "" {
		account = s.sessionAccount(ctx, session.AccessToken)
	}

	user, err := s.profiles.Profile(ctx, account.ID)
	if err == nil {
		return user
	}
	if apperrors.CodeOf(err) == apperrors.CodeNotFound {
		s.logger.Warn("profile missing, using provider account", zap.String("user_id", account.ID))
	} else {
		s.logger.Warn("profile lookup failed, using provider account", zap.String("user_id", account.ID), zap.Error(err))
	}
	return &model.User{
		ID:        account.ID,
		Email:     account.Email,
		Name:      account.Name,
		CreatedAt: account.CreatedAt,
	}
}

// sessionAccount resolves the account behind a session that carried no user.
// Display fields need admin privileges; without them only the id is known.
func (s *AuthService) sessionAccount(ctx context.Context, token string) *identity.Account {
	userID, err := s.provider.VerifyToken(ctx, token)
	if err != nil {
		s.logger.Warn("could not resolve session user", zap.Error(err))
		return &identity.Account{}
	}
	if s.provider.HasAdmin() {
		account, err := s.provider.Account(ctx, userID)
		if err == nil {
			return account
		}
		s.logger.Warn("account lookup failed", zap.String("user_id", userID), zap.Error(err))
	}
	return &identity.Account{ID: userID}
}

func validateCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.BadRequest("a valid email address is required")
	}
	if len([]rune(password)) < minPasswordLength {
		return "", apperrors.BadRequest("password must be at least 6 characters")
	}
	return email, nil
}

func rejectionMessage(err error) string {
	var apiErr *identity.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "signup request was rejected"
}
