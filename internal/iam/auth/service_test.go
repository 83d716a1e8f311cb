// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package auth_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/annotide/annotide/internal/iam/auth"
	"github.com/annotide/annotide/internal/iam/identity"
	"github.com/annotide/annotide/internal/platform/apperr"
	"github.com/annotide/annotide/internal/platform/sec"
)

// fakeIdentityStore is an in-memory identity.Store keyed by email.
type fakeIdentityStore struct {
	byEmail map[string]*identity.Identity
}

func (store *fakeIdentityStore) FindByID(_ context.Context, id string) (*identity.Identity, error) {
	for _, idn := range store.byEmail {
		if idn.ID == id {
			return idn, nil
		}
	}
	return nil, apperr.NotFound("Identity")
}

func (store *fakeIdentityStore) FindByEmail(_ context.Context, email string) (*identity.Identity, error) {
	idn, ok := store.byEmail[email]
	if !ok {
		return nil, apperr.NotFound("Identity")
	}
	return idn, nil
}

func (store *fakeIdentityStore) Create(_ context.Context, idn *identity.Identity) error {
	if _, exists := store.byEmail[idn.Email]; exists {
		return apperr.Conflict("Identity already exists")
	}
	store.byEmail[idn.Email] = idn
	return nil
}

// fakeResolver returns fixed permissions and roles.
type fakeResolver struct {
	permissions []string
	roles       []string
}

func (resolver *fakeResolver) EffectivePermissions(_ context.Context, _ *identity.Identity) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(resolver.permissions))
	for _, name := range resolver.permissions {
		set[name] = struct{}{}
	}
	return set, nil
}

func (resolver *fakeResolver) EffectiveRoles(_ context.Context, _ *identity.Identity) ([]string, error) {
	return resolver.roles, nil
}

func newAuthService(t *testing.T, idns ...*identity.Identity) (*auth.Service, *sec.TokenService) {
	t.Helper()

	store := &fakeIdentityStore{byEmail: map[string]*identity.Identity{}}
	for _, idn := range idns {
		store.byEmail[idn.Email] = idn
	}

	tokens, err := sec.NewTokenService("test-signing-secret", "annotide.dev", 30*time.Minute)
	require.NoError(t, err)

	resolver := &fakeResolver{
		permissions: []string{"annotations:read"},
		roles:       []string{"user"},
	}

	return auth.NewService(store, resolver, tokens, slog.Default()), tokens
}

func withPassword(t *testing.T, email, password string) *identity.Identity {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	return &identity.Identity{
		ID:           "0191a2b3-0000-7000-8000-000000000001",
		Email:        email,
		PasswordHash: &hash,
		DisplayName:  "Reader",
		Role:         "user",
	}
}

/*
TestService_Authenticate verifies credential verification including email
normalization.
*/
func TestService_Authenticate(t *testing.T) {
	service, _ := newAuthService(t, withPassword(t, "reader@annotide.dev", "correct-password"))

	t.Run("success", func(t *testing.T) {
		idn, err := service.Authenticate(context.Background(), "reader@annotide.dev", "correct-password")
		require.NoError(t, err)
		assert.Equal(t, "reader@annotide.dev", idn.Email)
	})

	t.Run("email_normalized", func(t *testing.T) {
		idn, err := service.Authenticate(context.Background(), "  Reader@Annotide.DEV ", "correct-password")
		require.NoError(t, err)
		assert.Equal(t, "reader@annotide.dev", idn.Email)
	})
}

/*
TestService_Authenticate_UniformFailure verifies that every failure mode
returns the same INVALID_CREDENTIALS error.
*/
func TestService_Authenticate_UniformFailure(t *testing.T) {
	federated := &identity.Identity{
		ID:    "0191a2b3-0000-7000-8000-000000000002",
		Email: "social@annotide.dev",
		// No password hash: created by a federated login.
	}
	service, _ := newAuthService(t,
		withPassword(t, "reader@annotide.dev", "correct-password"),
		federated,
	)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown_email", "nobody@annotide.dev", "whatever"},
		{"wrong_password", "reader@annotide.dev", "wrong-password"},
		{"federated_identity", "social@annotide.dev", "any-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Authenticate(context.Background(), tt.email, tt.password)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "INVALID_CREDENTIALS", ae.Code)
			assert.Equal(t, "Incorrect email or password", ae.Message)
		})
	}
}

/*
TestService_Login_LegacyHash verifies that an account still carrying a bcrypt
hash can log in, and that the minted token's subject is the email.
*/
func TestService_Login_LegacyHash(t *testing.T) {
	legacyHash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	hashString := string(legacyHash)

	legacy := &identity.Identity{
		ID:           "0191a2b3-0000-7000-8000-000000000003",
		Email:        "a@x.com",
		PasswordHash: &hashString,
		Role:         "user",
	}

	service, tokens := newAuthService(t, legacy)

	session, err := service.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "bearer", session.TokenType)
	assert.Equal(t, "a@x.com", session.User.Email)
	assert.Equal(t, []string{"annotations:read"}, session.User.Permissions)
	assert.Equal(t, []string{"user"}, session.User.Roles)

	claims, err := tokens.Verify(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
}

/*
TestService_IssueToken verifies the bare token grant path.
*/
func TestService_IssueToken(t *testing.T) {
	service, tokens := newAuthService(t, withPassword(t, "reader@annotide.dev", "correct-password"))

	token, err := service.IssueToken(context.Background(), "reader@annotide.dev", "correct-password")
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "reader@annotide.dev", claims.Subject)

	_, err = service.IssueToken(context.Background(), "reader@annotide.dev", "wrong")
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", apperr.As(err).Code)
}
