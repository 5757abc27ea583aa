// Package emailpassword implements the email/password authentication
// provider: signup with verification email, password signin, the
// verification-status endpoints, and the token exchange/refresh passthroughs.
package emailpassword

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/chauffeurhq/chauffeur-auth/internal/identity"
	"github.com/chauffeurhq/chauffeur-auth/internal/mailer"
	"github.com/chauffeurhq/chauffeur-auth/internal/provider"
)

const providerName = "email-password"

// Provider is the email/password authentication provider.
type Provider struct {
	backend identity.Backend
	mailer  mailer.Mailer
}

var _ provider.Provider = (*Provider)(nil)

// New creates the provider. A nil mailer falls back to logging verification
// links.
func New(backend identity.Backend, m mailer.Mailer) *Provider {
	if m == nil {
		m = &mailer.LogMailer{}
	}
	return &Provider{backend: backend, mailer: m}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return providerName }

// signupRequest is the body of POST {prefix}/signup.
type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// signinRequest is the body of POST {prefix}/signin.
type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// verificationResponse is shared by the verification-status endpoints.
type verificationResponse struct {
	Message       string `json:"message"`
	EmailVerified bool   `json:"email_verified"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type customTokenRequest struct {
	CustomToken string `json:"custom_token"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionTokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// verifyTokenResponse reports token validity and whether the account behind
// it still exists.
type verifyTokenResponse struct {
	Valid         bool   `json:"valid"`
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	UserExists    bool   `json:"user_exists"`
	Error         string `json:"error,omitempty"`
}

// RegisterRoutes attaches all email/password endpoints under prefix.
func (p *Provider) RegisterRoutes(mux *http.ServeMux, prefix string) {
	post := func(path string, h http.HandlerFunc) {
		mux.HandleFunc(prefix+path, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				h(w, r)
			case http.MethodOptions:
				w.WriteHeader(http.StatusNoContent)
			default:
				provider.WriteErrorMessage(w, "method not allowed", http.StatusMethodNotAllowed)
			}
		})
	}

	post("/signup", p.handleSignup)
	post("/signin", p.handleSignin)
	post("/resend-verification-email", p.handleResendVerificationEmail)
	post("/verify-token", p.handleVerifyToken)
	post("/exchange-custom-token", p.handleExchangeCustomToken)
	post("/refresh-token", p.handleRefreshToken)

	// Routes carrying {uid} as the path suffix.
	p.uidRoute(mux, prefix, "/send-verification-email/", http.MethodPost, p.handleSendVerificationEmail)
	p.uidRoute(mux, prefix, "/check-verification/", http.MethodGet, p.handleCheckVerification)
	p.uidRoute(mux, prefix, "/require-verification/", http.MethodPost, p.handleRequireVerification)
	p.uidRoute(mux, prefix, "/signout/", http.MethodPost, p.handleSignout)

	mux.HandleFunc(prefix+"/user/", func(w http.ResponseWriter, r *http.Request) {
		uid := pathSuffix(r.URL.Path, prefix+"/user/")
		if uid == "" {
			provider.WriteErrorMessage(w, "uid is required", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			p.handleGetUser(w, r, uid)
		case http.MethodDelete:
			p.handleDeleteUser(w, r, uid)
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
		default:
			provider.WriteErrorMessage(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// uidRoute registers a single-method route with a {uid} path suffix.
func (p *Provider) uidRoute(mux *http.ServeMux, prefix, path, method string, h func(http.ResponseWriter, *http.Request, string)) {
	mux.HandleFunc(prefix+path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != method {
			provider.WriteErrorMessage(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		uid := pathSuffix(r.URL.Path, prefix+path)
		if uid == "" {
			provider.WriteErrorMessage(w, "uid is required", http.StatusBadRequest)
			return
		}
		h(w, r, uid)
	})
}

// Authenticate implements the provider contract: an email/password pair in,
// an AuthResult with a session ID token out.
func (p *Provider) Authenticate(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	tokens, err := p.backend.SignInWithPassword(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, err
	}

	// Re-read the record so email_verified reflects the backend's current
	// state, not a cached claim.
	user, err := p.backend.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		return nil, err
	}

	return &identity.AuthResult{
		User:         *user,
		Token:        tokens.IDToken,
		TokenType:    identity.TokenTypeID,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		Provider:     "password",
	}, nil
}

func (p *Provider) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		provider.WriteErrorMessage(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateEmail(req.Email); err != nil {
		provider.WriteErrorMessage(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		provider.WriteErrorMessage(w, "password is required", http.StatusBadRequest)
		return
	}

	user, err := p.backend.CreateUser(r.Context(), identity.CreateUserParams{
		Email:         req.Email,
		Password:      req.Password,
		DisplayName:   req.DisplayName,
		EmailVerified: false,
	})
	if err != nil {
		provider.WriteError(w, err)
		return
	}

	// Best-effort: a failed verification email never fails the signup.
	if err := p.sendVerificationEmail(r.Context(), user.Email); err != nil {
		log.Printf("[%s] failed to send verification email to %s: %v", providerName, user.Email, err)
	}

	token, err := p.backend.CustomToken(r.Context(), user.UID)
	if err != nil {
		provider.WriteError(w, err)
		return
	}

	provider.WriteJSON(w, identity.AuthResult{
		User:      *user,
		Token:     token,
		TokenType: identity.TokenTypeCustom,
		Provider:  "password",
	}, http.StatusCreated)
}

func (p *Provider) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		provider.WriteErrorMessage(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		provider.WriteErrorMessage(w, "email and password are required", http.StatusBadRequest)
		return
	}

	result, err := p.Authenticate(r.Context(), identity.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		provider.WriteError(w, err)
		return
	}
	provider.WriteJSON(w, result, http.StatusOK)
}

func (p *Provider) handleSendVerificationEmail(w http.ResponseWriter, r *http.Request, uid string) {
	user, err := p.backend.GetUser(r.Context(), uid)
	if err != nil {
		provider.WriteError(w, err)
		return
	}
	if err := p.sendVerificationEmail(r.Context(), user.Email); err != nil {
		provider.WriteError(w, err)
		return
	}
	provider.WriteJSON(w, verificationResponse{
		Message:       "Verification email sent successfully",
		EmailVerified: user.EmailVerified,
	}, http.StatusOK)
}

func (p *Provider) handleResendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		provider.WriteErrorMessage(w, "invalid form body", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	if email == "" {
		provider.WriteErrorMessage(w, "email is required", http.StatusBadRequest)
		return
	}

	user, err := p.backend.GetUserByEmail(r.Context(), email)
	if err != nil {
		provider.WriteError(w, err)
		return
	}
	if err := p.sendVerificationEmail(r.Context(), user.Email); err != nil {
		provider.WriteError(w, err)
		return
	}
	provider.WriteJSON(w, verificationResponse{
		Message:       "Verification email resent successfully",
		EmailVerified: user.EmailVerified,
	}, http.StatusOK)
}

func (p *Provider) handleCheckVerification(w http.ResponseWriter, r *http.Request, uid string) {
	user, err := p.backend.GetUser(r.Context(), uid)
	if err != nil {
		provider.WriteError(w, err)
		return
	}
	provider.WriteJSON(w, verificationResponse{
		Message:       "Verification status checked successfully",
		EmailVerified: user.EmailVerified,
	}, http.StatusOK)
}

func (p *Provider) handleRequireVerification(w http.ResponseWriter, r *http.Request, uid string) {
	user, err := p.backend.GetUser(r.Context(), uid)
	if err != nil {
		provider.WriteError(w, err)
		return
	}
	if !user.EmailVerified {
		provider.WriteError(w, fmt.Errorf("%w: please check your email and click the verification link", identity.ErrVerificationRequired))
		return
	}
	provider.WriteJSON(w, verificationResponse{
		Message:       "Email is verified",
		EmailVerified: true,
	}, http.StatusOK)
}

func (p *Provider) handleSignout(w http.ResponseWriter, r *http.Request, uid string) {
	if err := p.backend.RevokeRefreshTokens(r.Context(), uid); err != nil {
		provider.WriteError(w, err)
		return
	}
	provider.WriteJSON(w, messageResponse{Message: "User signed out (tokens revoked) successfully"}, http.StatusOK)
}

func (p *Provider) handleGetUser(w http.ResponseWriter, r *http.Request, uid string) {
	user, err := p.backend.GetUser(r.Context(), uid)
	if err != nil {
		provider.WriteError(w, err)
		return
	}
	provider.WriteJSON(w, user, http.StatusOK)
}

func (p *Provider) handleDeleteUser(w http.ResponseWriter, r *http.Request, uid string) {
	if err := p.backend.DeleteUser(r.Context(), uid); err != nil {
		provider.WriteError(w, err)
		return
	}
	provider.WriteJSON(w, messageResponse{Message: "User deleted successfully"}, http.StatusOK)
}

func (p *Provider) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		provider.WriteErrorMessage(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		provider.WriteErrorMessage(w, "token is required", http.StatusBadRequest)
		return
	}

	claims, err := p.backend.VerifyIDToken(r.Context(), req.Token)
	if err != nil {
		provider.WriteError(w, err)
		return
	}

	// The token can outlive the account it was issued for.
	if _, err := p.backend.GetUser(r.Context(), claims.UID); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			provider.WriteJSON(w, verifyTokenResponse{
				Valid:      false,
				UID:        claims.UID,
				UserExists: false,
				Error:      "User has been deleted",
			}, http.StatusOK)
			return
		}
		provider.WriteError(w, err)
		return
	}

	provider.WriteJSON(w, verifyTokenResponse{
		Valid:         true,
		UID:           claims.UID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		UserExists:    true,
	}, http.StatusOK)
}

func (p *Provider) handleExchangeCustomToken(w http.ResponseWriter, r *http.Request) {
	var req customTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		provider.WriteErrorMessage(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CustomToken == "" {
		provider.WriteErrorMessage(w, "custom_token is required", http.StatusBadRequest)
		return
	}

	tokens, err := p.backend.SignInWithCustomToken(r.Context(), req.CustomToken)
	if err != nil {
		provider.WriteError(w, err)
		return
	}
	provider.WriteJSON(w, sessionTokenResponse{
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, http.StatusOK)
}

func (p *Provider) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		provider.WriteErrorMessage(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RefreshToken == "" {
		provider.WriteErrorMessage(w, "refresh_token is required", http.StatusBadRequest)
		return
	}

	tokens, err := p.backend.RefreshIDToken(r.Context(), req.RefreshToken)
	if err != nil {
		provider.WriteError(w, err)
		return
	}
	provider.WriteJSON(w, sessionTokenResponse{
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    "Bearer",
	}, http.StatusOK)
}

// sendVerificationEmail generates the backend verification link and hands it
// to the mailer. One attempt; callers decide whether failure matters.
func (p *Provider) sendVerificationEmail(ctx context.Context, email string) error {
	link, err := p.backend.EmailVerificationLink(ctx, email)
	if err != nil {
		return err
	}
	return p.mailer.SendVerificationEmail(ctx, email, link)
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

func pathSuffix(path, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	suffix := strings.TrimPrefix(path, prefix)
	if strings.Contains(suffix, "/") {
		return ""
	}
	return suffix
}
