package identity

import "context"

// CreateUserParams carries the attributes of a new backend account.
type CreateUserParams struct {
	Email         string
	Password      string
	DisplayName   string
	EmailVerified bool
}

// Backend is the capability set the facade needs from the identity platform.
// Every method performs exactly one backend round trip, blocks until it
// completes, and returns errors from the taxonomy in errors.go.
type Backend interface {
	// CreateUser creates an account. Fails with ErrEmailAlreadyExists on a
	// duplicate email and ErrWeakPassword on a rejected password.
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)

	// GetUser fetches an account by uid. Fails with ErrUserNotFound.
	GetUser(ctx context.Context, uid string) (*User, error)

	// GetUserByEmail fetches an account by email. Fails with ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateEmailVerified sets the email-verified flag on an account.
	UpdateEmailVerified(ctx context.Context, uid string, verified bool) (*User, error)

	// DeleteUser removes an account. Fails with ErrUserNotFound.
	DeleteUser(ctx context.Context, uid string) error

	// VerifyIDToken validates a session ID token and returns its claims.
	// Fails with ErrInvalidToken.
	VerifyIDToken(ctx context.Context, idToken string) (*TokenClaims, error)

	// CustomToken mints a backend custom token for the uid.
	CustomToken(ctx context.Context, uid string) (string, error)

	// RevokeRefreshTokens invalidates all refresh tokens of the account,
	// signing the user out of every device. Fails with ErrUserNotFound.
	RevokeRefreshTokens(ctx context.Context, uid string) error

	// EmailVerificationLink generates the verification link for the email.
	// Fails with ErrUserNotFound for unknown addresses.
	EmailVerificationLink(ctx context.Context, email string) (string, error)

	// SignInWithPassword checks an email/password pair and issues session
	// tokens. Fails with ErrInvalidCredentials on mismatch or unknown email.
	SignInWithPassword(ctx context.Context, email, password string) (*SessionTokens, error)

	// SignInWithCustomToken exchanges a custom token for session tokens.
	// Fails with ErrInvalidToken.
	SignInWithCustomToken(ctx context.Context, customToken string) (*SessionTokens, error)

	// RefreshIDToken exchanges a refresh token for fresh session tokens.
	// Fails with ErrInvalidToken on expired or malformed input.
	RefreshIDToken(ctx context.Context, refreshToken string) (*SessionTokens, error)
}
