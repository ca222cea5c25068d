package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/civic-ai/civic-backend/internal/explain"
	"github.com/civic-ai/civic-backend/internal/identity"
	"github.com/civic-ai/civic-backend/internal/model"
	"github.com/civic-ai/civic-backend/internal/store"
)

var errBoom = errors.New("boom")

// flakyBackend is a memory backend whose writes can be made to fail.
type flakyBackend struct {
	*store.MemoryBackend

	failInsertChat     bool
	failInsertMessages bool
	failProfile        bool
}

func newFlakyBackend() *flakyBackend {
	return &flakyBackend{MemoryBackend: store.NewMemoryBackend()}
}

func (b *flakyBackend) InsertChat(ctx context.Context, chat *model.Chat) error {
	if b.failInsertChat {
		return errBoom
	}
	return b.MemoryBackend.InsertChat(ctx, chat)
}

func (b *flakyBackend) InsertMessages(ctx context.Context, msgs []model.Message) error {
	if b.failInsertMessages {
		return errBoom
	}
	return b.MemoryBackend.InsertMessages(ctx, msgs)
}

func (b *flakyBackend) InsertProfile(ctx context.Context, user *model.User) error {
	if b.failProfile {
		return errBoom
	}
	return b.MemoryBackend.InsertProfile(ctx, user)
}

// staticBackend answers every explanation with answer, or fails with err.
type staticBackend struct {
	answer string
	err    error
}

func (b staticBackend) Name() string { return "static" }

func (b staticBackend) Explain(context.Context, string, string) (string, error) {
	return b.answer, b.err
}

// visionBackend answers image prompts with raw.
type visionBackend struct {
	staticBackend
	raw string
}

func (b visionBackend) ExplainImage(context.Context, []byte, string, string) (string, error) {
	return b.raw, b.err
}

var _ explain.VisionBackend = visionBackend{}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(context.Context, []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.TurnEvent
	err    error
}

func (p *recordingPublisher) PublishTurn(_ context.Context, event *model.TurnEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// fakeProvider is an in-memory identity provider.
type fakeProvider struct {
	admin bool

	tokens    map[string]string
	accounts  map[string]*identity.Account
	passwords map[string]string

	signUpErr    error
	signInErr    error
	signUpTokens bool
	bareSessions bool
	confirmed    []string
}

func newFakeProvider(admin bool) *fakeProvider {
	return &fakeProvider{
		admin:     admin,
		tokens:    map[string]string{},
		accounts:  map[string]*identity.Account{},
		passwords: map[string]string{},
	}
}

func (p *fakeProvider) VerifyToken(_ context.Context, token string) (string, error) {
	id, ok := p.tokens[token]
	if !ok {
		return "", identity.ErrInvalidToken
	}
	return id, nil
}

func (p *fakeProvider) SignUp(_ context.Context, email, password, name string) (*identity.Account, *identity.Session, error) {
	if p.signUpErr != nil {
		return nil, nil, p.signUpErr
	}
	for _, acc := range p.accounts {
		if acc.Email == email {
			return nil, nil, &identity.APIError{Status: 422, Code: "user_already_exists", Message: "User already registered"}
		}
	}
	acc := &identity.Account{
		ID:        "user-" + email,
		Email:     email,
		Name:      name,
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	p.accounts[acc.ID] = acc
	p.passwords[email] = password
	if p.signUpTokens {
		return acc, p.session(acc), nil
	}
	return acc, nil, nil
}

func (p *fakeProvider) SignIn(_ context.Context, email, password string) (*identity.Session, error) {
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	if pw, ok := p.passwords[email]; !ok || pw != password {
		return nil, &identity.APIError{Status: 400, Code: "invalid_grant", Message: "Invalid login credentials"}
	}
	for _, acc := range p.accounts {
		if acc.Email == email {
			return p.session(acc), nil
		}
	}
	return nil, errBoom
}

func (p *fakeProvider) session(acc *identity.Account) *identity.Session {
	token := "token-" + acc.ID
	p.tokens[token] = acc.ID
	if p.bareSessions {
		return &identity.Session{AccessToken: token}
	}
	return &identity.Session{AccessToken: token, Account: acc}
}

func (p *fakeProvider) ConfirmEmail(_ context.Context, userID string) error {
	if !p.admin {
		return identity.ErrAdminUnavailable
	}
	p.confirmed = append(p.confirmed, userID)
	return nil
}

func (p *fakeProvider) Account(_ context.Context, userID string) (*identity.Account, error) {
	acc, ok := p.accounts[userID]
	if !ok {
		return nil, &identity.APIError{Status: 404, Message: "User not found"}
	}
	return acc, nil
}

func (p *fakeProvider) HasAdmin() bool { return p.admin }

var _ identity.Provider = (*fakeProvider)(nil)
