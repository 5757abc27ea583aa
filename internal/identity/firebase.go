package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// adminClient is the slice of the Firebase Admin SDK auth client the backend
// uses. *firebaseauth.Client implements it.
type adminClient interface {
	CreateUser(ctx context.Context, user *firebaseauth.UserToCreate) (*firebaseauth.UserRecord, error)
	GetUser(ctx context.Context, uid string) (*firebaseauth.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*firebaseauth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *firebaseauth.UserToUpdate) (*firebaseauth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
	CustomToken(ctx context.Context, uid string) (string, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
	EmailVerificationLink(ctx context.Context, email string) (string, error)
}

// FirebaseBackend implements Backend using the Firebase Admin SDK for user
// management and token verification, and the Identity Toolkit / Secure Token
// REST endpoints for the operations the Admin SDK does not cover (password
// verification, custom-token exchange, token refresh).
type FirebaseBackend struct {
	admin  adminClient
	tokens *TokenEndpoints
}

// FirebaseConfig holds configuration for FirebaseBackend.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
	APIKey          string // Web API key, used by the token REST endpoints
}

// NewFirebaseBackend initializes the Firebase app and auth client.
func NewFirebaseBackend(ctx context.Context, cfg FirebaseConfig) (*FirebaseBackend, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}

	return &FirebaseBackend{
		admin:  client,
		tokens: NewTokenEndpoints(cfg.APIKey),
	}, nil
}

var _ Backend = (*FirebaseBackend)(nil)

func (b *FirebaseBackend) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	// OAuth-created accounts carry no password. When one is supplied,
	// Firebase rejects short passwords anyway; checking here keeps the
	// error kind stable across SDK versions.
	if params.Password != "" && len(params.Password) < 6 {
		return nil, fmt.Errorf("%w: at least 6 characters required", ErrWeakPassword)
	}

	toCreate := (&firebaseauth.UserToCreate{}).
		Email(params.Email).
		EmailVerified(params.EmailVerified)
	if params.Password != "" {
		toCreate = toCreate.Password(params.Password)
	}
	if params.DisplayName != "" {
		toCreate = toCreate.DisplayName(params.DisplayName)
	}

	rec, err := b.admin.CreateUser(ctx, toCreate)
	if err != nil {
		if firebaseauth.IsEmailAlreadyExists(err) {
			return nil, fmt.Errorf("%w: %s", ErrEmailAlreadyExists, params.Email)
		}
		return nil, fmt.Errorf("%w: create user: %v", ErrBackendUnavailable, err)
	}
	return userFromRecord(rec), nil
}

func (b *FirebaseBackend) GetUser(ctx context.Context, uid string) (*User, error) {
	rec, err := b.admin.GetUser(ctx, uid)
	if err != nil {
		if firebaseauth.IsUserNotFound(err) {
			return nil, fmt.Errorf("%w: uid %s", ErrUserNotFound, uid)
		}
		return nil, fmt.Errorf("%w: get user: %v", ErrBackendUnavailable, err)
	}
	return userFromRecord(rec), nil
}

func (b *FirebaseBackend) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	rec, err := b.admin.GetUserByEmail(ctx, email)
	if err != nil {
		if firebaseauth.IsUserNotFound(err) {
			return nil, fmt.Errorf("%w: email %s", ErrUserNotFound, email)
		}
		return nil, fmt.Errorf("%w: get user by email: %v", ErrBackendUnavailable, err)
	}
	return userFromRecord(rec), nil
}

func (b *FirebaseBackend) UpdateEmailVerified(ctx context.Context, uid string, verified bool) (*User, error) {
	rec, err := b.admin.UpdateUser(ctx, uid, (&firebaseauth.UserToUpdate{}).EmailVerified(verified))
	if err != nil {
		if firebaseauth.IsUserNotFound(err) {
			return nil, fmt.Errorf("%w: uid %s", ErrUserNotFound, uid)
		}
		return nil, fmt.Errorf("%w: update user: %v", ErrBackendUnavailable, err)
	}
	return userFromRecord(rec), nil
}

func (b *FirebaseBackend) DeleteUser(ctx context.Context, uid string) error {
	if err := b.admin.DeleteUser(ctx, uid); err != nil {
		if firebaseauth.IsUserNotFound(err) {
			return fmt.Errorf("%w: uid %s", ErrUserNotFound, uid)
		}
		return fmt.Errorf("%w: delete user: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (b *FirebaseBackend) VerifyIDToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	token, err := b.admin.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &TokenClaims{
		UID:           token.UID,
		Email:         getStringClaim(token.Claims, "email"),
		EmailVerified: getBoolClaim(token.Claims, "email_verified"),
		Name:          getStringClaim(token.Claims, "name"),
		Picture:       getStringClaim(token.Claims, "picture"),
	}
	if token.Firebase.SignInProvider != "" {
		claims.SignInProvider = token.Firebase.SignInProvider
	}
	return claims, nil
}

func (b *FirebaseBackend) CustomToken(ctx context.Context, uid string) (string, error) {
	token, err := b.admin.CustomToken(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("%w: mint custom token: %v", ErrBackendUnavailable, err)
	}
	return token, nil
}

func (b *FirebaseBackend) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if err := b.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		if firebaseauth.IsUserNotFound(err) {
			return fmt.Errorf("%w: uid %s", ErrUserNotFound, uid)
		}
		return fmt.Errorf("%w: revoke refresh tokens: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (b *FirebaseBackend) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	link, err := b.admin.EmailVerificationLink(ctx, email)
	if err != nil {
		if firebaseauth.IsUserNotFound(err) {
			return "", fmt.Errorf("%w: email %s", ErrUserNotFound, email)
		}
		return "", fmt.Errorf("%w: email verification link: %v", ErrBackendUnavailable, err)
	}
	return link, nil
}

func (b *FirebaseBackend) SignInWithPassword(ctx context.Context, email, password string) (*SessionTokens, error) {
	return b.tokens.SignInWithPassword(ctx, email, password)
}

func (b *FirebaseBackend) SignInWithCustomToken(ctx context.Context, customToken string) (*SessionTokens, error) {
	return b.tokens.SignInWithCustomToken(ctx, customToken)
}

func (b *FirebaseBackend) RefreshIDToken(ctx context.Context, refreshToken string) (*SessionTokens, error) {
	return b.tokens.RefreshIDToken(ctx, refreshToken)
}

func userFromRecord(rec *firebaseauth.UserRecord) *User {
	return &User{
		UID:           rec.UID,
		Email:         rec.Email,
		DisplayName:   rec.DisplayName,
		EmailVerified: rec.EmailVerified,
	}
}

// getStringClaim safely extracts a string claim from the claims map
func getStringClaim(claims map[string]any, key string) string {
	val, ok := claims[key]
	if !ok {
		return ""
	}
	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// getBoolClaim safely extracts a boolean claim from the claims map
func getBoolClaim(claims map[string]any, key string) bool {
	val, ok := claims[key]
	if !ok {
		return false
	}
	b, ok := val.(bool)
	if !ok {
		return false
	}
	return b
}
