// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

/*
Package oauth implements federated login against external identity providers.

It runs the standard authorization-code flow: mint a state token, redirect
the browser to the provider, then exchange the returned code for an access
token and read the user's profile. The outcome is always a local Annotide
identity plus a locally signed JWT; provider tokens are used once for the
profile read and never stored.

# Providers

GitHub and Google are supported. Each is a [Provider] strategy; the set is
fixed at startup, so an unknown provider name is a client error rather than
a lookup miss.
*/
package oauth

import (
	"context"
	"net/url"
)

// Profile is the normalized subset of a provider user profile that the
// federation flow needs. Email is the identity key.
type Profile struct {
	Email       string
	DisplayName string
}

// Provider is the strategy interface implemented per identity provider.
type Provider interface {
	// Name returns the lowercase provider identifier used in URLs.
	Name() string

	// Configured reports whether client credentials are present. An
	// unconfigured provider stays registered so the error surface is a
	// clear 503 instead of a 400 for an otherwise valid provider.
	Configured() bool

	// AuthorizeURL builds the provider's authorization page URL carrying
	// the state token and callback address.
	AuthorizeURL(state, redirectURI string) string

	// Exchange swaps the authorization code for a provider access token.
	Exchange(ctx context.Context, code, redirectURI string) (string, error)

	// FetchProfile reads the user profile with the provider access token.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// authorizeQuery assembles the shared query parameters of an authorization
// redirect. Provider implementations add their own scope values.
func authorizeQuery(clientID, redirectURI, scope, state string) url.Values {
	query := url.Values{}
	query.Set("client_id", clientID)
	query.Set("redirect_uri", redirectURI)
	query.Set("response_type", "code")
	query.Set("scope", scope)
	query.Set("state", state)
	return query
}
