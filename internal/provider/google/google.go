// Package google implements the Google OAuth authentication provider:
// exchanging a Google-issued ID token for a backend session, and exposing
// the OAuth client configuration to the frontend.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/chauffeurhq/chauffeur-auth/internal/identity"
	"github.com/chauffeurhq/chauffeur-auth/internal/provider"
)

const providerName = "google"

// Well-known Google OAuth endpoints, exposed to the frontend via /config.
const (
	authURI     = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenURI    = "https://oauth2.googleapis.com/token"
	userinfoURI = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// TokenValidator validates a Google ID token against an audience.
// idtoken.Validate from google.golang.org/api satisfies the default
// implementation.
type TokenValidator interface {
	Validate(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

type apiValidator struct{}

func (apiValidator) Validate(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
	return idtoken.Validate(ctx, token, audience)
}

// Provider is the Google OAuth authentication provider.
type Provider struct {
	backend   identity.Backend
	clientID  string
	validator TokenValidator
}

var _ provider.Provider = (*Provider)(nil)

// New creates the provider. An empty clientID is allowed; signin and config
// requests then fail with ErrMisconfigured.
func New(backend identity.Backend, clientID string) *Provider {
	return &Provider{
		backend:   backend,
		clientID:  clientID,
		validator: apiValidator{},
	}
}

// NewWithValidator creates the provider with a custom token validator.
func NewWithValidator(backend identity.Backend, clientID string, v TokenValidator) *Provider {
	return &Provider{backend: backend, clientID: clientID, validator: v}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return providerName }

type signinRequest struct {
	IDToken string `json:"id_token"`
}

type configResponse struct {
	ClientID    string `json:"client_id"`
	AuthURI     string `json:"auth_uri"`
	TokenURI    string `json:"token_uri"`
	UserinfoURI string `json:"userinfo_uri"`
}

// RegisterRoutes attaches the Google OAuth endpoints under prefix.
func (p *Provider) RegisterRoutes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix+"/signin", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			p.handleSignin(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			provider.WriteErrorMessage(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc(prefix+"/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			p.handleConfig(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			provider.WriteErrorMessage(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (p *Provider) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		provider.WriteErrorMessage(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		provider.WriteErrorMessage(w, "id_token is required", http.StatusBadRequest)
		return
	}

	result, err := p.Authenticate(r.Context(), identity.Credentials{IDToken: req.IDToken})
	if err != nil {
		provider.WriteError(w, err)
		return
	}
	provider.WriteJSON(w, result, http.StatusOK)
}

func (p *Provider) handleConfig(w http.ResponseWriter, r *http.Request) {
	if p.clientID == "" {
		provider.WriteError(w, fmt.Errorf("%w: GOOGLE_OAUTH_CLIENT_ID is not set", identity.ErrMisconfigured))
		return
	}
	provider.WriteJSON(w, configResponse{
		ClientID:    p.clientID,
		AuthURI:     authURI,
		TokenURI:    tokenURI,
		UserinfoURI: userinfoURI,
	}, http.StatusOK)
}

// Authenticate validates the Google ID token, gets or creates the backend
// account keyed by its email claim, and returns an AuthResult carrying a
// custom token. No account is created when validation fails.
func (p *Provider) Authenticate(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	if p.clientID == "" {
		return nil, fmt.Errorf("%w: GOOGLE_OAUTH_CLIENT_ID is not set", identity.ErrMisconfigured)
	}

	info, err := p.verifyGoogleToken(ctx, creds.IDToken)
	if err != nil {
		return nil, err
	}

	user, err := p.getOrCreateUser(ctx, info)
	if err != nil {
		return nil, err
	}

	token, err := p.backend.CustomToken(ctx, user.UID)
	if err != nil {
		return nil, err
	}

	return &identity.AuthResult{
		User:      *user,
		Token:     token,
		TokenType: identity.TokenTypeCustom,
		Provider:  providerName,
	}, nil
}

// googleTokenInfo is the subset of Google ID token claims the facade uses.
type googleTokenInfo struct {
	Sub           string
	Email         string
	EmailVerified bool
	Name          string
}

func (p *Provider) verifyGoogleToken(ctx context.Context, token string) (*googleTokenInfo, error) {
	payload, err := p.validator.Validate(ctx, strings.TrimSpace(token), p.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return nil, fmt.Errorf("%w: wrong issuer %q", identity.ErrInvalidToken, payload.Issuer)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: email claim is missing", identity.ErrInvalidToken)
	}

	name, _ := payload.Claims["name"].(string)
	return &googleTokenInfo{
		Sub:           payload.Subject,
		Email:         email,
		EmailVerified: emailVerifiedClaim(payload.Claims["email_verified"]),
		Name:          name,
	}, nil
}

// getOrCreateUser reuses the backend account matching the token's email
// claim or creates one. Google-verified emails are treated as verified
// without a separate email-verification step.
func (p *Provider) getOrCreateUser(ctx context.Context, info *googleTokenInfo) (*identity.User, error) {
	user, err := p.backend.GetUserByEmail(ctx, info.Email)
	if err == nil {
		// Google's attestation can verify an address that the password
		// flow never did.
		if info.EmailVerified && !user.EmailVerified {
			return p.backend.UpdateEmailVerified(ctx, user.UID, true)
		}
		return user, nil
	}
	if !errors.Is(err, identity.ErrUserNotFound) {
		return nil, err
	}

	return p.backend.CreateUser(ctx, identity.CreateUserParams{
		Email:         info.Email,
		DisplayName:   info.Name,
		EmailVerified: info.EmailVerified,
	})
}

// emailVerifiedClaim tolerates both bool and string encodings of the
// email_verified claim.
func emailVerifiedClaim(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(strings.TrimSpace(val), "true")
	default:
		return false
	}
}
