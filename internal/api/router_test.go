package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chauffeurhq/chauffeur-auth/internal/identity"
	"github.com/chauffeurhq/chauffeur-auth/internal/provider"
)

type stubLister struct {
	collections []string
	err         error
}

func (s *stubLister) Collections(ctx context.Context) ([]string, error) {
	return s.collections, s.err
}

type pingProvider struct{}

func (pingProvider) Name() string { return "ping" }

func (pingProvider) RegisterRoutes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix+"/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"pong":true}`))
	})
}

func (pingProvider) Authenticate(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
}

func TestFirestoreStatus(t *testing.T) {
	router := NewRouter(RouterConfig{
		Firestore: &stubLister{collections: []string{"drivers", "rides"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/status/firestore", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success     bool     `json:"success"`
		Collections []string `json:"collections"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if len(resp.Collections) != 2 {
		t.Errorf("expected 2 collections, got %v", resp.Collections)
	}
}

func TestFirestoreStatusUnavailable(t *testing.T) {
	router := NewRouter(RouterConfig{
		Firestore: &stubLister{err: fmt.Errorf("connection refused")},
	})

	req := httptest.NewRequest(http.MethodGet, "/status/firestore", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if !strings.Contains(resp.Error, "connection refused") {
		t.Errorf("expected the backend error in the response, got %q", resp.Error)
	}
}

func TestFirestoreStatusDisabled(t *testing.T) {
	router := NewRouter(RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/status/firestore", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when firestore is not configured, got %d", rec.Code)
	}
}

func TestProviderRoutesMounted(t *testing.T) {
	registry := provider.NewRegistry()
	if err := registry.Register(pingProvider{}, "/auth/ping"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router := NewRouter(RouterConfig{Registry: registry})

	req := httptest.NewRequest(http.MethodGet, "/auth/ping/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"pong":true}` {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestCORSHeaders(t *testing.T) {
	router := NewRouter(RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected Access-Control-Allow-Origin *, got %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	registry := provider.NewRegistry()
	panicky := &panicProvider{}
	if err := registry.Register(panicky, "/auth/panic"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router := NewRouter(RouterConfig{Registry: registry})

	req := httptest.NewRequest(http.MethodGet, "/auth/panic/boom", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from the recovery middleware, got %d", rec.Code)
	}
}

type panicProvider struct{}

func (panicProvider) Name() string { return "panic" }

func (panicProvider) RegisterRoutes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix+"/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
}

func (panicProvider) Authenticate(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	return nil, fmt.Errorf("not implemented")
}
