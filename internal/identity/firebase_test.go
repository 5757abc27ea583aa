package identity

import (
	"context"
	"errors"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// mockAdminClient implements adminClient for testing
type mockAdminClient struct {
	createUserFn    func(ctx context.Context, user *firebaseauth.UserToCreate) (*firebaseauth.UserRecord, error)
	verifyIDTokenFn func(ctx context.Context, idToken string) (*firebaseauth.Token, error)
	customTokenFn   func(ctx context.Context, uid string) (string, error)
}

func (m *mockAdminClient) CreateUser(ctx context.Context, user *firebaseauth.UserToCreate) (*firebaseauth.UserRecord, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, user)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAdminClient) GetUser(ctx context.Context, uid string) (*firebaseauth.UserRecord, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAdminClient) GetUserByEmail(ctx context.Context, email string) (*firebaseauth.UserRecord, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAdminClient) UpdateUser(ctx context.Context, uid string, user *firebaseauth.UserToUpdate) (*firebaseauth.UserRecord, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAdminClient) DeleteUser(ctx context.Context, uid string) error {
	return errors.New("not implemented")
}

func (m *mockAdminClient) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	if m.verifyIDTokenFn != nil {
		return m.verifyIDTokenFn(ctx, idToken)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAdminClient) CustomToken(ctx context.Context, uid string) (string, error) {
	if m.customTokenFn != nil {
		return m.customTokenFn(ctx, uid)
	}
	return "", errors.New("not implemented")
}

func (m *mockAdminClient) RevokeRefreshTokens(ctx context.Context, uid string) error {
	return errors.New("not implemented")
}

func (m *mockAdminClient) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	return "", errors.New("not implemented")
}

func TestCreateUserWeakPassword(t *testing.T) {
	called := false
	b := &FirebaseBackend{
		admin: &mockAdminClient{
			createUserFn: func(ctx context.Context, user *firebaseauth.UserToCreate) (*firebaseauth.UserRecord, error) {
				called = true
				return nil, errors.New("should not be reached")
			},
		},
	}

	_, err := b.CreateUser(context.Background(), CreateUserParams{
		Email:    "a@x.com",
		Password: "short",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if called {
		t.Error("backend should not be called for a weak password")
	}
}

func TestCreateUserWithoutPassword(t *testing.T) {
	// OAuth-created accounts carry no password and must not trip the
	// weak-password check.
	b := &FirebaseBackend{
		admin: &mockAdminClient{
			createUserFn: func(ctx context.Context, user *firebaseauth.UserToCreate) (*firebaseauth.UserRecord, error) {
				return &firebaseauth.UserRecord{
					UserInfo: &firebaseauth.UserInfo{
						UID:         "uid-1",
						Email:       "g@x.com",
						DisplayName: "G User",
					},
					EmailVerified: true,
				}, nil
			},
		},
	}

	user, err := b.CreateUser(context.Background(), CreateUserParams{
		Email:         "g@x.com",
		DisplayName:   "G User",
		EmailVerified: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.UID != "uid-1" || !user.EmailVerified {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestVerifyIDTokenClaims(t *testing.T) {
	b := &FirebaseBackend{
		admin: &mockAdminClient{
			verifyIDTokenFn: func(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
				return &firebaseauth.Token{
					UID: "uid-1",
					Claims: map[string]any{
						"email":          "a@x.com",
						"email_verified": true,
						"name":           "A User",
					},
					Firebase: firebaseauth.FirebaseInfo{SignInProvider: "password"},
				}, nil
			},
		},
	}

	claims, err := b.VerifyIDToken(context.Background(), "token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UID != "uid-1" {
		t.Errorf("expected uid-1, got %q", claims.UID)
	}
	if claims.Email != "a@x.com" {
		t.Errorf("expected a@x.com, got %q", claims.Email)
	}
	if !claims.EmailVerified {
		t.Error("expected email_verified true")
	}
	if claims.SignInProvider != "password" {
		t.Errorf("expected sign-in provider password, got %q", claims.SignInProvider)
	}
}

func TestVerifyIDTokenInvalid(t *testing.T) {
	b := &FirebaseBackend{
		admin: &mockAdminClient{
			verifyIDTokenFn: func(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
				return nil, errors.New("token has expired")
			},
		},
	}

	_, err := b.VerifyIDToken(context.Background(), "expired")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGetStringClaim(t *testing.T) {
	tests := []struct {
		name     string
		claims   map[string]interface{}
		key      string
		expected string
	}{
		{
			name:     "existing string claim",
			claims:   map[string]interface{}{"email": "test@example.com"},
			key:      "email",
			expected: "test@example.com",
		},
		{
			name:     "missing claim",
			claims:   map[string]interface{}{},
			key:      "email",
			expected: "",
		},
		{
			name:     "wrong type claim",
			claims:   map[string]interface{}{"email": 123},
			key:      "email",
			expected: "",
		},
		{
			name:     "nil claims map",
			claims:   nil,
			key:      "email",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getStringClaim(tt.claims, tt.key)
			if result != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestGetBoolClaim(t *testing.T) {
	tests := []struct {
		name     string
		claims   map[string]interface{}
		key      string
		expected bool
	}{
		{
			name:     "existing true claim",
			claims:   map[string]interface{}{"email_verified": true},
			key:      "email_verified",
			expected: true,
		},
		{
			name:     "existing false claim",
			claims:   map[string]interface{}{"email_verified": false},
			key:      "email_verified",
			expected: false,
		},
		{
			name:     "wrong type claim - string",
			claims:   map[string]interface{}{"email_verified": "true"},
			key:      "email_verified",
			expected: false,
		},
		{
			name:     "nil claims map",
			claims:   nil,
			key:      "email_verified",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getBoolClaim(tt.claims, tt.key)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}
