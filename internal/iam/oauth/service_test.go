// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package oauth

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annotide/annotide/internal/iam/identity"
	"github.com/annotide/annotide/internal/platform/apperr"
	"github.com/annotide/annotide/internal/platform/sec"
)

// fakeProvider is a scriptable Provider for service-level tests.
type fakeProvider struct {
	name       string
	configured bool
	profile    *Profile

	exchangeErr error
}

func (provider *fakeProvider) Name() string     { return provider.name }
func (provider *fakeProvider) Configured() bool { return provider.configured }

func (provider *fakeProvider) AuthorizeURL(state, redirectURI string) string {
	return "https://provider.test/authorize?state=" + state + "&redirect_uri=" + redirectURI
}

func (provider *fakeProvider) Exchange(_ context.Context, _, _ string) (string, error) {
	if provider.exchangeErr != nil {
		return "", provider.exchangeErr
	}
	return "provider-access-token", nil
}

func (provider *fakeProvider) FetchProfile(_ context.Context, _ string) (*Profile, error) {
	return provider.profile, nil
}

// fakeStateStore keeps pending states in a map.
type fakeStateStore struct {
	states map[string]string
}

func (store *fakeStateStore) Set(_ context.Context, state, provider string, _ time.Duration) error {
	store.states[state] = provider
	return nil
}

func (store *fakeStateStore) Consume(_ context.Context, state string) (string, error) {
	provider, ok := store.states[state]
	if !ok {
		return "", apperr.Unauthorized("State token is invalid or expired")
	}
	delete(store.states, state)
	return provider, nil
}

// fakeIdentityStore is an in-memory identity.Store keyed by email.
type fakeIdentityStore struct {
	byEmail map[string]*identity.Identity

	// conflictOnCreate simulates losing the unique-index race: the first
	// Create fails with Conflict after inserting a competitor row.
	conflictOnCreate bool
	createCalls      int
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
	store.createCalls++
	if store.conflictOnCreate {
		store.byEmail[idn.Email] = &identity.Identity{
			ID:    "winner-id",
			Email: idn.Email,
			Role:  "user",
		}
		return apperr.Conflict("Identity already exists")
	}
	if _, exists := store.byEmail[idn.Email]; exists {
		return apperr.Conflict("Identity already exists")
	}
	store.byEmail[idn.Email] = idn
	return nil
}

func newTestService(t *testing.T, providers []Provider, identities *fakeIdentityStore, states *fakeStateStore) *Service {
	t.Helper()

	tokens, err := sec.NewTokenService("test-signing-secret", "annotide.dev", 30*time.Minute)
	require.NoError(t, err)

	return NewService(providers, states, identities, tokens, "http://localhost:8080", slog.Default())
}

/*
TestService_Initiate verifies state minting and the authorize redirect.
*/
func TestService_Initiate(t *testing.T) {
	states := &fakeStateStore{states: map[string]string{}}
	identities := &fakeIdentityStore{byEmail: map[string]*identity.Identity{}}
	provider := &fakeProvider{name: "github", configured: true}

	service := newTestService(t, []Provider{provider}, identities, states)

	location, err := service.Initiate(context.Background(), "github")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(location, "https://provider.test/authorize?state="))
	assert.Contains(t, location, "/api/v1/auth/social/callback/github")
	assert.Len(t, states.states, 1)
}

/*
TestService_Initiate_UnknownProvider verifies the closed-registry behavior.
*/
func TestService_Initiate_UnknownProvider(t *testing.T) {
	service := newTestService(t,
		[]Provider{&fakeProvider{name: "github", configured: true}},
		&fakeIdentityStore{byEmail: map[string]*identity.Identity{}},
		&fakeStateStore{states: map[string]string{}},
	)

	_, err := service.Initiate(context.Background(), "gitlab")
	require.Error(t, err)
	assert.Equal(t, "UNSUPPORTED_PROVIDER", apperr.As(err).Code)
}

/*
TestService_Initiate_Unconfigured verifies that a registered provider with
missing credentials degrades into a configuration error, never a crash.
*/
func TestService_Initiate_Unconfigured(t *testing.T) {
	service := newTestService(t,
		[]Provider{&fakeProvider{name: "google", configured: false}},
		&fakeIdentityStore{byEmail: map[string]*identity.Identity{}},
		&fakeStateStore{states: map[string]string{}},
	)

	_, err := service.Initiate(context.Background(), "google")
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "FEDERATION_NOT_CONFIGURED", ae.Code)
	assert.Equal(t, 503, ae.HTTPStatus)
}

/*
TestService_Callback_FindOrCreate verifies that a first federated login
creates a baseline identity and a repeat login reuses it.
*/
func TestService_Callback_FindOrCreate(t *testing.T) {
	states := &fakeStateStore{states: map[string]string{}}
	identities := &fakeIdentityStore{byEmail: map[string]*identity.Identity{}}
	provider := &fakeProvider{
		name:       "github",
		configured: true,
		profile:    &Profile{Email: "New@Example.com", DisplayName: "New Person"},
	}

	service := newTestService(t, []Provider{provider}, identities, states)

	// First login creates the identity.
	states.states["state-1"] = "github"
	result, err := service.Callback(context.Background(), "github", "state-1", "code-1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "bearer", result.TokenType)

	created, ok := identities.byEmail["new@example.com"]
	require.True(t, ok, "identity should be created under the normalized email")
	assert.Equal(t, "user", created.Role)
	assert.Nil(t, created.PasswordHash)
	assert.Equal(t, "New Person", created.DisplayName)

	// Second login finds the same identity, no new create.
	createsBefore := identities.createCalls
	states.states["state-2"] = "github"
	_, err = service.Callback(context.Background(), "github", "state-2", "code-2")
	require.NoError(t, err)
	assert.Equal(t, createsBefore, identities.createCalls)
}

/*
TestService_Callback_ConflictRecovered verifies that losing the unique-index
race on first login is recovered by re-fetching the winner's row.
*/
func TestService_Callback_ConflictRecovered(t *testing.T) {
	states := &fakeStateStore{states: map[string]string{"state-1": "github"}}
	identities := &fakeIdentityStore{
		byEmail:          map[string]*identity.Identity{},
		conflictOnCreate: true,
	}
	provider := &fakeProvider{
		name:       "github",
		configured: true,
		profile:    &Profile{Email: "racer@example.com"},
	}

	service := newTestService(t, []Provider{provider}, identities, states)

	result, err := service.Callback(context.Background(), "github", "state-1", "code-1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
}

/*
TestService_Callback_BadState verifies single-use and cross-provider state
rejection.
*/
func TestService_Callback_BadState(t *testing.T) {
	states := &fakeStateStore{states: map[string]string{"google-state": "google"}}
	identities := &fakeIdentityStore{byEmail: map[string]*identity.Identity{}}
	github := &fakeProvider{name: "github", configured: true, profile: &Profile{Email: "a@b.c"}}
	google := &fakeProvider{name: "google", configured: true, profile: &Profile{Email: "a@b.c"}}

	service := newTestService(t, []Provider{github, google}, identities, states)

	t.Run("unknown_state", func(t *testing.T) {
		_, err := service.Callback(context.Background(), "github", "never-minted", "code")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("cross_provider_state", func(t *testing.T) {
		_, err := service.Callback(context.Background(), "github", "google-state", "code")
		require.Error(t, err)
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	})

	t.Run("state_single_use", func(t *testing.T) {
		states.states["state-x"] = "github"
		_, err := service.Callback(context.Background(), "github", "state-x", "code")
		require.NoError(t, err)

		_, err = service.Callback(context.Background(), "github", "state-x", "code")
		require.Error(t, err)
	})
}
