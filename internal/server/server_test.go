package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-generator/internal/config"
	"github.com/jonathan/portfolio-generator/internal/db"
	"github.com/jonathan/portfolio-generator/internal/memstore"
	"github.com/jonathan/portfolio-generator/internal/pipeline"
	"github.com/jonathan/portfolio-generator/internal/server/ratelimit"
)

// MockGenerator is a function-field Generator
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req pipeline.Request, opts pipeline.RunOptions) (*pipeline.Result, error)
	calls        atomic.Int32
}

func (m *MockGenerator) Generate(ctx context.Context, req pipeline.Request, opts pipeline.RunOptions) (*pipeline.Result, error) {
	m.calls.Add(1)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req, opts)
	}
	return nil, errors.New("GenerateFunc not set")
}

type testEnv struct {
	server *Server
	store  *memstore.Store
	jwt    *JWTService
	userID uuid.UUID
	token  string
}

func newTestEnv(t *testing.T, gen Generator, limiter *ratelimit.Limiter) *testEnv {
	t.Helper()
	jwtService := NewJWTService(&config.JWTConfig{
		Secret:          "test-secret-0123456789",
		ExpirationHours: 1,
		Issuer:          config.DefaultJWTIssuer,
	})
	store := memstore.New()
	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID)
	require.NoError(t, err)

	srv := New(Config{Port: 0}, Dependencies{
		Generator:   gen,
		Jobs:        store,
		Portfolios:  store,
		JWT:         jwtService,
		RateLimiter: limiter,
		Logger:      zap.NewNop(),
	})
	return &testEnv{server: srv, store: store, jwt: jwtService, userID: userID, token: token}
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &MockGenerator{}, nil)

	w := env.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, &MockGenerator{}, nil)

	w := env.do(http.MethodOptions, "/portfolios/x/generate", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRateLimitOnGenerate(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		EndpointConfigs: ratelimit.DefaultEndpointConfigs(10),
	})
	defer limiter.Stop()

	gen := &MockGenerator{GenerateFunc: func(_ context.Context, _ pipeline.Request, opts pipeline.RunOptions) (*pipeline.Result, error) {
		opts.OnJobCreated(uuid.New())
		return &pipeline.Result{Success: true}, nil
	}}
	env := newTestEnv(t, gen, limiter)
	path := fmt.Sprintf("/portfolios/%s/generate", uuid.New())

	for i := 0; i < 2; i++ {
		w := env.do(http.MethodPost, path, "", env.token)
		require.Equal(t, http.StatusAccepted, w.Code, "request %d", i+1)
		assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	}

	w := env.do(http.MethodPost, path, "", env.token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	// Health stays reachable
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", "", "").Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{Field: "id", Message: "must be a UUID"}, http.StatusBadRequest},
		{"forbidden", &ErrForbidden{Resource: "portfolio"}, http.StatusForbidden},
		{"not found", fmt.Errorf("job: %w", db.ErrNotFound), http.StatusNotFound},
		{"invalid input", &pipeline.Error{Kind: pipeline.KindInvalidInput, Err: errors.New("x")}, http.StatusBadRequest},
		{"missing input", &pipeline.Error{Kind: pipeline.KindRequiredInputMissing, Err: pipeline.ErrGitHubNotConnected}, http.StatusUnprocessableEntity},
		{"upstream", &pipeline.Error{Kind: pipeline.KindUpstreamUnavailable, Err: errors.New("x")}, http.StatusServiceUnavailable},
		{"malformed", &pipeline.Error{Kind: pipeline.KindMalformedOutput, Err: errors.New("x")}, http.StatusBadGateway},
		{"persistence", &pipeline.Error{Kind: pipeline.KindPersistence, Err: errors.New("x")}, http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorBody(t *testing.T) {
	body := errorBody(&pipeline.Error{Kind: pipeline.KindRequiredInputMissing, Err: pipeline.ErrGitHubNotConnected})
	assert.Equal(t, "no GitHub account connected", body["error"])
	assert.Equal(t, "required_input_missing", body["error_kind"])

	body = errorBody(&ErrValidation{Field: "id", Message: "must be a UUID"})
	_, hasKind := body["error_kind"]
	assert.False(t, hasKind)
}

func newAuthedRequest(t *testing.T, env *testEnv, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+env.token)
	return req
}

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	return w
}
