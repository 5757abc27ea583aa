// Package provider defines the pluggable authentication-provider contract
// and the registry that mounts providers under disjoint path prefixes.
package provider

import (
	"context"
	"net/http"

	"github.com/chauffeurhq/chauffeur-auth/internal/identity"
)

// Provider is one authentication method (email/password, Google OAuth, ...).
// Each provider owns its request/response schema but conforms to the
// identity.AuthResult shape on success, so callers have a single uniform
// success contract regardless of method.
type Provider interface {
	// Name returns the provider identifier (e.g. "email-password", "google").
	Name() string

	// RegisterRoutes attaches the provider's endpoints under the given path
	// prefix. It must not mutate any state beyond route registration.
	RegisterRoutes(mux *http.ServeMux, prefix string)

	// Authenticate produces an AuthResult from method-specific credentials.
	Authenticate(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error)
}
