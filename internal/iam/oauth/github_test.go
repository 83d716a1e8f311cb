// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGitHubTestServer serves the three GitHub endpoints the provider touches.
func newGitHubTestServer(t *testing.T, user map[string]any, emails []map[string]any) (*httptest.Server, *GitHubProvider) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "application/json", request.Header.Get("Accept"))
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]string{"access_token": "gh-token"})
	})
	mux.HandleFunc("/user", func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer gh-token", request.Header.Get("Authorization"))
		_ = json.NewEncoder(writer).Encode(user)
	})
	mux.HandleFunc("/user/emails", func(writer http.ResponseWriter, request *http.Request) {
		_ = json.NewEncoder(writer).Encode(emails)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	provider := NewGitHubProvider("client-id", "client-secret", server.Client())
	provider.tokenEndpoint = server.URL + "/login/oauth/access_token"
	provider.userEndpoint = server.URL + "/user"
	provider.emailsEndpoint = server.URL + "/user/emails"

	return server, provider
}

/*
TestGitHubProvider_FetchProfile_PublicEmail verifies the direct profile path.
*/
func TestGitHubProvider_FetchProfile_PublicEmail(t *testing.T) {
	_, provider := newGitHubTestServer(t,
		map[string]any{"login": "octocat", "name": "Octo Cat", "email": "octo@example.com"},
		nil,
	)

	profile, err := provider.FetchProfile(context.Background(), "gh-token")
	require.NoError(t, err)

	assert.Equal(t, "octo@example.com", profile.Email)
	assert.Equal(t, "Octo Cat", profile.DisplayName)
}

/*
TestGitHubProvider_FetchProfile_PrimaryFallback verifies the /user/emails
fallback when the profile email is private, and the login fallback when the
display name is unset.
*/
func TestGitHubProvider_FetchProfile_PrimaryFallback(t *testing.T) {
	_, provider := newGitHubTestServer(t,
		map[string]any{"login": "octocat", "name": nil, "email": nil},
		[]map[string]any{
			{"email": "secondary@example.com", "primary": false},
			{"email": "primary@example.com", "primary": true},
		},
	)

	profile, err := provider.FetchProfile(context.Background(), "gh-token")
	require.NoError(t, err)

	assert.Equal(t, "primary@example.com", profile.Email)
	assert.Equal(t, "octocat", profile.DisplayName)
}

/*
TestGitHubProvider_FetchProfile_NoEmail verifies the failure when neither the
profile nor the email listing yields an address.
*/
func TestGitHubProvider_FetchProfile_NoEmail(t *testing.T) {
	_, provider := newGitHubTestServer(t,
		map[string]any{"login": "octocat"},
		[]map[string]any{{"email": "secondary@example.com", "primary": false}},
	)

	_, err := provider.FetchProfile(context.Background(), "gh-token")
	require.Error(t, err)
}

/*
TestGitHubProvider_Exchange verifies the code-for-token exchange.
*/
func TestGitHubProvider_Exchange(t *testing.T) {
	_, provider := newGitHubTestServer(t, nil, nil)

	token, err := provider.Exchange(context.Background(), "the-code", "http://localhost/callback")
	require.NoError(t, err)
	assert.Equal(t, "gh-token", token)
}

/*
TestGitHubProvider_AuthorizeURL verifies state and redirect parameters.
*/
func TestGitHubProvider_AuthorizeURL(t *testing.T) {
	provider := NewGitHubProvider("client-id", "client-secret", http.DefaultClient)

	location := provider.AuthorizeURL("the-state", "http://localhost/callback")

	assert.Contains(t, location, "https://github.com/login/oauth/authorize?")
	assert.Contains(t, location, "state=the-state")
	assert.Contains(t, location, "client_id=client-id")
	assert.Contains(t, location, "scope=user%3Aemail")
}

/*
TestGitHubProvider_Configured verifies credential presence detection.
*/
func TestGitHubProvider_Configured(t *testing.T) {
	assert.True(t, NewGitHubProvider("id", "secret", http.DefaultClient).Configured())
	assert.False(t, NewGitHubProvider("", "", http.DefaultClient).Configured())
	assert.False(t, NewGitHubProvider("id", "", http.DefaultClient).Configured())
}
