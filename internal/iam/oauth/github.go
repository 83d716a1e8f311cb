// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/annotide/annotide/internal/platform/apperr"
)

// GitHub OAuth endpoints.
const (
	githubAuthorizeEndpoint = "https://github.com/login/oauth/authorize"
	githubTokenEndpoint     = "https://github.com/login/oauth/access_token"
	githubUserEndpoint      = "https://api.github.com/user"
	githubEmailsEndpoint    = "https://api.github.com/user/emails"
)

// GitHubProvider implements [Provider] for GitHub OAuth apps.
//
// GitHub hides the account email when the user marks it private, so the
// profile read falls back to the /user/emails listing and picks the entry
// GitHub flags as primary.
type GitHubProvider struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	// Endpoint overrides for tests; empty means the public GitHub API.
	authorizeEndpoint string
	tokenEndpoint     string
	userEndpoint      string
	emailsEndpoint    string
}

// NewGitHubProvider constructs the GitHub strategy. Empty credentials are
// accepted; the provider then reports itself unconfigured.
func NewGitHubProvider(clientID, clientSecret string, httpClient *http.Client) *GitHubProvider {
	return &GitHubProvider{
		clientID:          clientID,
		clientSecret:      clientSecret,
		httpClient:        httpClient,
		authorizeEndpoint: githubAuthorizeEndpoint,
		tokenEndpoint:     githubTokenEndpoint,
		userEndpoint:      githubUserEndpoint,
		emailsEndpoint:    githubEmailsEndpoint,
	}
}

// Name implements [Provider].
func (provider *GitHubProvider) Name() string {
	return "github"
}

// Configured implements [Provider].
func (provider *GitHubProvider) Configured() bool {
	return provider.clientID != "" && provider.clientSecret != ""
}

// AuthorizeURL implements [Provider].
func (provider *GitHubProvider) AuthorizeURL(state, redirectURI string) string {
	query := authorizeQuery(provider.clientID, redirectURI, "user:email", state)
	return provider.authorizeEndpoint + "?" + query.Encode()
}

/*
Exchange swaps the authorization code for a GitHub access token.

Description: GitHub answers with form-encoded data unless the request asks
for JSON explicitly via the Accept header.

Parameters:
  - ctx: context.Context
  - code: string (authorization code from the callback)
  - redirectURI: string (must match the authorize redirect)

Returns:
  - string: Provider access token
  - error: apperr.FederationExchange on any network or protocol failure
*/
func (provider *GitHubProvider) Exchange(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{}
	form.Set("client_id", provider.clientID)
	form.Set("client_secret", provider.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("github_exchange_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")

	response, err := provider.httpClient.Do(request)
	if err != nil {
		return "", apperr.FederationExchange(err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", apperr.FederationExchange(fmt.Errorf("github token endpoint returned %d", response.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", apperr.FederationExchange(err)
	}

	if payload.AccessToken == "" {
		return "", apperr.FederationExchange(fmt.Errorf("github token endpoint returned no access_token"))
	}

	return payload.AccessToken, nil
}

/*
FetchProfile reads the authenticated GitHub user.

Description: Display name prefers the profile name and falls back to the
login handle. A missing public email triggers the /user/emails fallback.

Returns:
  - *Profile: Normalized profile with a guaranteed email
  - error: apperr.FederationExchange when no usable email can be found
*/
func (provider *GitHubProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var user struct {
		Login string  `json:"login"`
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := provider.getJSON(ctx, provider.userEndpoint, accessToken, &user); err != nil {
		return nil, err
	}

	displayName := user.Login
	if user.Name != nil && *user.Name != "" {
		displayName = *user.Name
	}

	if user.Email != nil && *user.Email != "" {
		return &Profile{Email: *user.Email, DisplayName: displayName}, nil
	}

	// Private email: list the addresses and take the primary one.
	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}
	if err := provider.getJSON(ctx, provider.emailsEndpoint, accessToken, &emails); err != nil {
		return nil, err
	}

	for _, entry := range emails {
		if entry.Primary {
			return &Profile{Email: entry.Email, DisplayName: displayName}, nil
		}
	}

	return nil, apperr.FederationExchange(fmt.Errorf("github profile has no primary email"))
}

// getJSON performs an authenticated GET against the GitHub API.
func (provider *GitHubProvider) getJSON(ctx context.Context, endpoint, accessToken string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("github_profile_request_failed: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)
	request.Header.Set("Accept", "application/vnd.github+json")

	response, err := provider.httpClient.Do(request)
	if err != nil {
		return apperr.FederationExchange(err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return apperr.FederationExchange(fmt.Errorf("github api returned %d for %s", response.StatusCode, endpoint))
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return apperr.FederationExchange(err)
	}

	return nil
}
