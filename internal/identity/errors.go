package identity

import "errors"

// Error taxonomy of the facade. Backend implementations translate
// platform-specific failures into exactly one of these kinds at the
// boundary; handlers map each kind to a fixed HTTP status. There is no
// local recovery: every failure surfaces directly to the caller.
var (
	// ErrInvalidCredentials covers wrong password and unknown email at signin.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when a uid or email resolves to no account.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned on duplicate signup.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrVerificationRequired is returned by the require-verification guard
	// while the account's email is unverified.
	ErrVerificationRequired = errors.New("email verification required")

	// ErrInvalidToken covers malformed, expired and revoked tokens of any kind.
	ErrInvalidToken = errors.New("invalid token")

	// ErrWeakPassword is returned when the backend rejects a password as too
	// weak (Firebase requires at least 6 characters).
	ErrWeakPassword = errors.New("password is too weak")

	// ErrPrefixConflict is returned when a provider registration would
	// overlap the mount prefix of an already registered provider.
	ErrPrefixConflict = errors.New("route prefix conflict")

	// ErrMisconfigured is returned when required process configuration
	// (API key, OAuth client id) is absent.
	ErrMisconfigured = errors.New("missing configuration")

	// ErrBackendUnavailable is returned when the identity backend cannot be
	// reached or answers with a server-side failure.
	ErrBackendUnavailable = errors.New("identity backend unavailable")
)
