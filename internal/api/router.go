package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chauffeurhq/chauffeur-auth/internal/provider"
	"github.com/chauffeurhq/chauffeur-auth/internal/version"
)

// CollectionLister is the slice of the Firestore client the status route
// needs.
type CollectionLister interface {
	Collections(ctx context.Context) ([]string, error)
}

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	Registry  *provider.Registry
	Firestore CollectionLister // nil disables /status/firestore
}

// NewRouter composes the provider registry's aggregated routes with the
// public health and diagnostics routes and wraps everything in the standard
// middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fmt.Sprintf(`{"status":"ok","hash":"%s"}`, version.CommitHash)))
	})

	if cfg.Firestore != nil {
		mux.HandleFunc("/status/firestore", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				provider.WriteErrorMessage(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			collections, err := cfg.Firestore.Collections(r.Context())
			if err != nil {
				provider.WriteJSON(w, map[string]any{
					"success": false,
					"error":   err.Error(),
				}, http.StatusServiceUnavailable)
				return
			}
			provider.WriteJSON(w, map[string]any{
				"success":     true,
				"collections": collections,
			}, http.StatusOK)
		})
	}

	// Everything else belongs to the registered providers.
	if cfg.Registry != nil {
		mux.Handle("/", cfg.Registry.Handler())
	}

	return applyMiddlewareChain(mux)
}

// applyMiddlewareChain wraps a handler with the standard middleware stack
func applyMiddlewareChain(h http.Handler) http.Handler {
	return Chain(
		RecoveryMiddleware,
		LoggingMiddleware,
		CORSMiddleware,
		JSONContentTypeMiddleware,
	)(h)
}
