package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chauffeurhq/chauffeur-auth/internal/identity"
)

// stubProvider registers a single ping route under its prefix
type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) RegisterRoutes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix+"/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"provider":"` + s.name + `"}`))
	})
}

func (s *stubProvider) Authenticate(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	return &identity.AuthResult{Token: "stub-token", TokenType: identity.TokenTypeCustom}, nil
}

func TestRegisterDistinctPrefixes(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&stubProvider{name: "one"}, "/auth/one"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&stubProvider{name: "two"}, "/oauth/two"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Both providers remain independently reachable.
	for _, tt := range []struct {
		path string
		want string
	}{
		{"/auth/one/ping", `{"provider":"one"}`},
		{"/oauth/two/ping", `{"provider":"two"}`},
	} {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", tt.path, rec.Code)
		}
		if rec.Body.String() != tt.want {
			t.Errorf("%s: expected body %s, got %s", tt.path, tt.want, rec.Body.String())
		}
	}
}

func TestRegisterPrefixConflict(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
	}{
		{"identical prefixes", "/auth/email", "/auth/email"},
		{"second nested under first", "/auth", "/auth/email"},
		{"first nested under second", "/auth/email", "/auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if err := r.Register(&stubProvider{name: "first"}, tt.first); err != nil {
				t.Fatalf("first registration failed: %v", err)
			}
			err := r.Register(&stubProvider{name: "second"}, tt.second)
			if !errors.Is(err, identity.ErrPrefixConflict) {
				t.Fatalf("expected ErrPrefixConflict, got %v", err)
			}
		})
	}
}

func TestRegisterInvalidPrefix(t *testing.T) {
	tests := []string{"auth/email", "/auth/email/", ""}

	for _, prefix := range tests {
		r := NewRegistry()
		if err := r.Register(&stubProvider{name: "p"}, prefix); err == nil {
			t.Errorf("prefix %q: expected error, got nil", prefix)
		}
	}
}

func TestPrefixes(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubProvider{name: "one"}, "/auth/one"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prefixes := r.Prefixes()
	if len(prefixes) != 1 {
		t.Fatalf("expected 1 prefix, got %d", len(prefixes))
	}
	if prefixes["/auth/one"] != "one" {
		t.Errorf("expected provider 'one' at /auth/one, got %q", prefixes["/auth/one"])
	}

	// Mutating the copy must not affect the registry.
	prefixes["/other"] = "x"
	if len(r.Prefixes()) != 1 {
		t.Error("Prefixes() must return a copy")
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"user not found", identity.ErrUserNotFound, http.StatusNotFound},
		{"email already exists", identity.ErrEmailAlreadyExists, http.StatusConflict},
		{"verification required", identity.ErrVerificationRequired, http.StatusForbidden},
		{"invalid credentials", identity.ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid token", identity.ErrInvalidToken, http.StatusUnauthorized},
		{"weak password", identity.ErrWeakPassword, http.StatusBadRequest},
		{"backend unavailable", identity.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{"misconfigured", identity.ErrMisconfigured, http.StatusInternalServerError},
		{"prefix conflict", identity.ErrPrefixConflict, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("lookup: %w", identity.ErrUserNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusForError(tt.err); got != tt.want {
				t.Errorf("StatusForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
