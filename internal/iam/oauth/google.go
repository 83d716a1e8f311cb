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

// Google OAuth endpoints.
const (
	googleAuthorizeEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenEndpoint     = "https://oauth2.googleapis.com/token"
	googleUserinfoEndpoint  = "https://openidconnect.googleapis.com/v1/userinfo"
)

// GoogleProvider implements [Provider] for Google OAuth clients. Unlike
// GitHub, the userinfo document always carries the email directly.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	// Endpoint overrides for tests; empty means the public Google API.
	authorizeEndpoint string
	tokenEndpoint     string
	userinfoEndpoint  string
}

// NewGoogleProvider constructs the Google strategy. Empty credentials are
// accepted; the provider then reports itself unconfigured.
func NewGoogleProvider(clientID, clientSecret string, httpClient *http.Client) *GoogleProvider {
	return &GoogleProvider{
		clientID:          clientID,
		clientSecret:      clientSecret,
		httpClient:        httpClient,
		authorizeEndpoint: googleAuthorizeEndpoint,
		tokenEndpoint:     googleTokenEndpoint,
		userinfoEndpoint:  googleUserinfoEndpoint,
	}
}

// Name implements [Provider].
func (provider *GoogleProvider) Name() string {
	return "google"
}

// Configured implements [Provider].
func (provider *GoogleProvider) Configured() bool {
	return provider.clientID != "" && provider.clientSecret != ""
}

// AuthorizeURL implements [Provider].
func (provider *GoogleProvider) AuthorizeURL(state, redirectURI string) string {
	query := authorizeQuery(provider.clientID, redirectURI, "openid email profile", state)
	return provider.authorizeEndpoint + "?" + query.Encode()
}

/*
Exchange swaps the authorization code for a Google access token.

Parameters:
  - ctx: context.Context
  - code: string (authorization code from the callback)
  - redirectURI: string (must match the authorize redirect)

Returns:
  - string: Provider access token
  - error: apperr.FederationExchange on any network or protocol failure
*/
func (provider *GoogleProvider) Exchange(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{}
	form.Set("client_id", provider.clientID)
	form.Set("client_secret", provider.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("grant_type", "authorization_code")

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("google_exchange_request_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := provider.httpClient.Do(request)
	if err != nil {
		return "", apperr.FederationExchange(err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", apperr.FederationExchange(fmt.Errorf("google token endpoint returned %d", response.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", apperr.FederationExchange(err)
	}

	if payload.AccessToken == "" {
		return "", apperr.FederationExchange(fmt.Errorf("google token endpoint returned no access_token"))
	}

	return payload.AccessToken, nil
}

/*
FetchProfile reads the authenticated Google user from the userinfo endpoint.

Returns:
  - *Profile: Normalized profile
  - error: apperr.FederationExchange when the document carries no email
*/
func (provider *GoogleProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.userinfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("google_profile_request_failed: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+accessToken)

	response, err := provider.httpClient.Do(request)
	if err != nil {
		return nil, apperr.FederationExchange(err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, apperr.FederationExchange(fmt.Errorf("google userinfo returned %d", response.StatusCode))
	}

	var userinfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(response.Body).Decode(&userinfo); err != nil {
		return nil, apperr.FederationExchange(err)
	}

	if userinfo.Email == "" {
		return nil, apperr.FederationExchange(fmt.Errorf("google userinfo has no email"))
	}

	return &Profile{Email: userinfo.Email, DisplayName: userinfo.Name}, nil
}
