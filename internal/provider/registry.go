package provider

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/chauffeurhq/chauffeur-auth/internal/identity"
)

// Registry holds the active providers and aggregates their routes into one
// externally reachable surface. It has no behavior of its own beyond
// composition and prefix-conflict detection.
type Registry struct {
	mux      *http.ServeMux
	prefixes map[string]string // prefix -> provider name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mux:      http.NewServeMux(),
		prefixes: make(map[string]string),
	}
}

// Register mounts the provider's routes under prefix. The prefix must start
// with "/" and carry no trailing slash. Registration fails with
// identity.ErrPrefixConflict when the prefix equals or path-overlaps an
// already registered one.
func (r *Registry) Register(p Provider, prefix string) error {
	if !strings.HasPrefix(prefix, "/") || strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("invalid prefix %q: must start with '/' and carry no trailing slash", prefix)
	}

	for existing, name := range r.prefixes {
		if overlaps(existing, prefix) {
			return fmt.Errorf("%w: %q taken by provider %q", identity.ErrPrefixConflict, existing, name)
		}
	}

	p.RegisterRoutes(r.mux, prefix)
	r.prefixes[prefix] = p.Name()
	return nil
}

// Prefixes returns the registered prefix -> provider-name mapping.
func (r *Registry) Prefixes() map[string]string {
	out := make(map[string]string, len(r.prefixes))
	for prefix, name := range r.prefixes {
		out[prefix] = name
	}
	return out
}

// Handler returns the aggregated route surface of all registered providers.
func (r *Registry) Handler() http.Handler {
	return r.mux
}

// overlaps reports whether two mount prefixes collide: identical prefixes or
// one being a path ancestor of the other ("/auth" vs "/auth/email").
func overlaps(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}
