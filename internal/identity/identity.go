// Package identity defines the core types of the authentication facade and
// the narrow capability interface over the identity backend (Firebase Auth).
package identity

// TokenType names the kind of token carried in an AuthResult, so callers
// never have to guess which endpoint accepts it:
//
//   - "custom": backend-issued custom token, accepted only by
//     /exchange-custom-token. Returned by signup and Google signin.
//   - "id": session ID token, accepted only by /verify-token.
//     Returned by signin, exchange-custom-token and refresh-token.
//
// Refresh tokens never appear as AuthResult.Token; they travel in the
// RefreshToken field and are accepted only by /refresh-token.
type TokenType string

const (
	TokenTypeCustom TokenType = "custom"
	TokenTypeID     TokenType = "id"
)

// User is the facade's view of an identity-backend account.
// The backend owns the record; the facade never persists a copy.
type User struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// AuthResult is the uniform success shape returned by every provider.
// Token is never empty on success, and User.EmailVerified reflects the
// backend's record at response time.
type AuthResult struct {
	User         User      `json:"user"`
	Token        string    `json:"token"`
	TokenType    TokenType `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	Provider     string    `json:"provider,omitempty"`
}

// Credentials is the transient value object carried by one authentication
// request. Email/password providers read Email, Password and DisplayName;
// OAuth providers read IDToken. It is never persisted.
type Credentials struct {
	Email       string
	Password    string
	DisplayName string
	IDToken     string
}

// TokenClaims are the decoded claims of a verified ID token.
type TokenClaims struct {
	UID            string `json:"uid"`
	Email          string `json:"email,omitempty"`
	EmailVerified  bool   `json:"email_verified"`
	Name           string `json:"name,omitempty"`
	Picture        string `json:"picture,omitempty"`
	SignInProvider string `json:"sign_in_provider,omitempty"`
}

// SessionTokens is the result of a token-issuing backend call
// (password signin, custom-token exchange, refresh).
type SessionTokens struct {
	IDToken      string
	RefreshToken string
	ExpiresIn    int64
}
