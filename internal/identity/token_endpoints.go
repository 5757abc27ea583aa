package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	defaultSecureTokenURL     = "https://securetoken.googleapis.com/v1"
)

// TokenEndpoints calls the Identity Toolkit and Secure Token REST APIs.
// The Admin SDK cannot verify passwords or exchange tokens; those operations
// go through these endpoints, authenticated with the project's Web API key.
type TokenEndpoints struct {
	apiKey     string
	httpClient *http.Client

	// Overridable for tests.
	identityToolkitURL string
	secureTokenURL     string
}

// NewTokenEndpoints creates a client for the token REST endpoints.
// An empty apiKey is allowed at construction time; calls will fail with
// ErrMisconfigured.
func NewTokenEndpoints(apiKey string) *TokenEndpoints {
	return &TokenEndpoints{
		apiKey:             apiKey,
		httpClient:         &http.Client{Timeout: 10 * time.Second},
		identityToolkitURL: defaultIdentityToolkitURL,
		secureTokenURL:     defaultSecureTokenURL,
	}
}

// SignInWithPassword checks an email/password pair via
// accounts:signInWithPassword and returns the issued session tokens.
func (t *TokenEndpoints) SignInWithPassword(ctx context.Context, email, password string) (*SessionTokens, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var resp struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}
	if err := t.postJSON(ctx, t.identityToolkitURL+"/accounts:signInWithPassword", payload, &resp, classifyPasswordError); err != nil {
		return nil, err
	}
	return &SessionTokens{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    parseExpiresIn(resp.ExpiresIn),
	}, nil
}

// SignInWithCustomToken exchanges a custom token for session tokens via
// accounts:signInWithCustomToken.
func (t *TokenEndpoints) SignInWithCustomToken(ctx context.Context, customToken string) (*SessionTokens, error) {
	payload := map[string]any{
		"token":             customToken,
		"returnSecureToken": true,
	}
	var resp struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}
	if err := t.postJSON(ctx, t.identityToolkitURL+"/accounts:signInWithCustomToken", payload, &resp, classifyTokenError); err != nil {
		return nil, err
	}
	return &SessionTokens{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    parseExpiresIn(resp.ExpiresIn),
	}, nil
}

// RefreshIDToken exchanges a refresh token for a fresh ID token via the
// Secure Token endpoint. Note this endpoint is form-encoded and uses
// snake_case response fields, unlike the Identity Toolkit ones.
func (t *TokenEndpoints) RefreshIDToken(ctx context.Context, refreshToken string) (*SessionTokens, error) {
	if t.apiKey == "" {
		return nil, fmt.Errorf("%w: FIREBASE_API_KEY is not set", ErrMisconfigured)
	}

	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("refresh_token", refreshToken)

	endpoint := t.secureTokenURL + "/token?key=" + url.QueryEscape(t.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh request failed: %v", ErrBackendUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, classifyTokenError(readErrorMessage(httpResp))
	}

	var resp struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to parse token refresh response: %w", err)
	}
	return &SessionTokens{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    parseExpiresIn(resp.ExpiresIn),
	}, nil
}

// postJSON issues one JSON POST to an Identity Toolkit endpoint and decodes
// the response. Non-2xx responses are turned into taxonomy errors through
// classify.
func (t *TokenEndpoints) postJSON(ctx context.Context, endpoint string, payload any, out any, classify func(message string) error) error {
	if t.apiKey == "" {
		return fmt.Errorf("%w: FIREBASE_API_KEY is not set", ErrMisconfigured)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+url.QueryEscape(t.apiKey), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status=%d", ErrBackendUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(readErrorMessage(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readErrorMessage extracts error.message from an Identity Toolkit / Secure
// Token error body ({"error":{"message":"EMAIL_NOT_FOUND", ...}}).
func readErrorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error.Message == "" {
		return fmt.Sprintf("status=%d body=%s", resp.StatusCode, string(body))
	}
	return payload.Error.Message
}

func classifyPasswordError(message string) error {
	switch {
	case strings.Contains(message, "EMAIL_NOT_FOUND"),
		strings.Contains(message, "INVALID_PASSWORD"),
		strings.Contains(message, "INVALID_LOGIN_CREDENTIALS"),
		strings.Contains(message, "USER_DISABLED"):
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, message)
	default:
		return fmt.Errorf("%w: %s", ErrBackendUnavailable, message)
	}
}

func classifyTokenError(message string) error {
	switch {
	case strings.Contains(message, "INVALID_CUSTOM_TOKEN"),
		strings.Contains(message, "CREDENTIAL_MISMATCH"),
		strings.Contains(message, "TOKEN_EXPIRED"),
		strings.Contains(message, "INVALID_REFRESH_TOKEN"),
		strings.Contains(message, "INVALID_GRANT_TYPE"),
		strings.Contains(message, "MISSING_REFRESH_TOKEN"),
		strings.Contains(message, "USER_NOT_FOUND"),
		strings.Contains(message, "USER_DISABLED"):
		return fmt.Errorf("%w: %s", ErrInvalidToken, message)
	default:
		return fmt.Errorf("%w: %s", ErrBackendUnavailable, message)
	}
}

func parseExpiresIn(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
