package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-ai/civic-backend/internal/model"
	apperrors "github.com/civic-ai/civic-backend/pkg/errors"
	"github.com/civic-ai/civic-backend/pkg/logger"
)

type tokenAuthenticator map[string]*model.User

func (a tokenAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	if user, ok := a[token]; ok {
		return user, nil
	}
	return nil, apperrors.ErrInvalidToken
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetUserID(r.Context())))
}

func TestAuth(t *testing.T) {
	authn := tokenAuthenticator{"good": {ID: "alice"}}
	h := Auth(authn, logger.NewNop())(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"valid", "bearer good", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code == "" {
				assert.Equal(t, "alice", rec.Body.String())
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAuthProfileMissing(t *testing.T) {
	authn := authFunc(func(context.Context, string) (*model.User, error) {
		return nil, apperrors.ErrProfileNotFound
	})
	h := Auth(authn, logger.NewNop())(http.HandlerFunc(echoUser))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type authFunc func(context.Context, string) (*model.User, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (*model.User, error) {
	return f(ctx, token)
}

func TestLoggingSetsCorrelationID(t *testing.T) {
	var seen string
	h := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Correlation-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestLoggingSeesAuthenticatedUser(t *testing.T) {
	var info *requestInfo
	authn := tokenAuthenticator{"good": {ID: "alice"}}
	h := Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info = requestInfoFrom(r.Context())
		Auth(authn, logger.NewNop())(http.HandlerFunc(echoUser)).ServeHTTP(w, r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, info)
	assert.Equal(t, "alice", info.userID)
}

func TestUserRateLimit(t *testing.T) {
	authn := tokenAuthenticator{"a": {ID: "alice"}, "b": {ID: "bob"}}
	h := Auth(authn, logger.NewNop())(UserRateLimit(2, time.Minute)(http.HandlerFunc(echoUser)))

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusOK, do("b"))
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidation(t *testing.T) {
	assert.NoError(t, ValidateQuestion("How do I apply?"))
	assert.Error(t, ValidateQuestion(strings.Repeat("a", maxQuestionLength+1)))
	assert.Error(t, ValidateQuestion("\xff"))

	assert.NoError(t, ValidateTitle(""))
	assert.Error(t, ValidateTitle(strings.Repeat("t", maxTitleLength+1)))

	assert.NoError(t, ValidateLanguage("pt-BR"))
	assert.NoError(t, ValidateLanguage(""))
	assert.NoError(t, ValidateLanguage("Español"))
	assert.NoError(t, ValidateLanguage("हिन्दी"))
	assert.NoError(t, ValidateLanguage("Brazilian Portuguese"))
	assert.Error(t, ValidateLanguage("en; drop"))
	assert.Error(t, ValidateLanguage("\xff"))
	assert.Error(t, ValidateLanguage(strings.Repeat("x", maxLanguageLength+1)))
}
