package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/resilience"
	"github.com/SashaDiz/directoryhunt-sub001/internal/usecase"
)

func TestClientVerifyAccessToken_SendsAdminKeyAndParsesResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/v1/auth/introspect" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("x-admin-key"); got != "admin-secret" {
			t.Fatalf("unexpected x-admin-key: %s", got)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var req map[string]string
		if err := sonic.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if req["token"] != "token-abc" {
			t.Fatalf("unexpected token value: %s", req["token"])
		}

		w.Header().Set("Content-Type", "application/json")
		encoded, _ := sonic.Marshal(map[string]any{
			"active":  true,
			"user_id": "user-123",
			"email":   "voter@example.com",
		})
		_, _ = w.Write(encoded)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(
		srv.Client(),
		srv.URL,
		"/v1/auth/introspect",
		"admin-secret",
		resilience.CircuitBreakerConfig{Enabled: false},
		logger,
	)

	principal, err := client.VerifyAccessToken(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("verify token failed: %v", err)
	}

	if principal.UserID != "user-123" {
		t.Fatalf("unexpected user id: %s", principal.UserID)
	}
	if principal.Email != "voter@example.com" {
		t.Fatalf("unexpected email: %s", principal.Email)
	}
}

func TestClientVerifyAccessToken_InactiveToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"active":false}`))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(
		srv.Client(),
		srv.URL,
		"/v1/auth/introspect",
		"admin-secret",
		resilience.CircuitBreakerConfig{Enabled: false},
		logger,
	)

	_, err := client.VerifyAccessToken(context.Background(), "invalid-token")
	if !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClientVerifyAccessToken_ForbiddenMappedToDependencyUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(
		srv.Client(),
		srv.URL,
		"/v1/auth/introspect",
		"wrong-key",
		resilience.CircuitBreakerConfig{Enabled: false},
		logger,
	)

	_, err := client.VerifyAccessToken(context.Background(), "token-abc")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestClientVerifyAccessToken_UsesInMemoryCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"active":true,"user_id":"user-cache"}`))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(
		srv.Client(),
		srv.URL,
		"/v1/auth/introspect",
		"admin-secret",
		resilience.CircuitBreakerConfig{Enabled: false},
		logger,
	)

	for i := 0; i < 2; i++ {
		principal, err := client.VerifyAccessToken(context.Background(), "cached-token")
		if err != nil {
			t.Fatalf("verify token failed: %v", err)
		}
		if principal.UserID != "user-cache" {
			t.Fatalf("unexpected user id: %s", principal.UserID)
		}
	}

	if calls.Load() != 1 {
		t.Fatalf("expected one introspection call with cache, got %d", calls.Load())
	}
}
