// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package oauth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/annotide/annotide/internal/iam/identity"
	"github.com/annotide/annotide/internal/platform/apperr"
	"github.com/annotide/annotide/internal/platform/constants"
	"github.com/annotide/annotide/internal/platform/sec"
	"github.com/annotide/annotide/pkg/uuid"
)

// TokenIssuer defines the contract for minting local access tokens.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// TokenResult is the callback response: a locally signed token for the
// federated identity.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service orchestrates the federated login flow across providers.
type Service struct {
	providers    map[string]Provider
	states       StateStore
	identities   identity.Store
	tokens       TokenIssuer
	redirectBase string
	logger       *slog.Logger
}

// NewService constructs the federation [Service].
//
// The provider set is closed at construction; requests naming anything else
// fail with [apperr.UnsupportedProvider].
func NewService(
	providers []Provider,
	states StateStore,
	identities identity.Store,
	tokens TokenIssuer,
	redirectBase string,
	logger *slog.Logger,
) *Service {
	registry := make(map[string]Provider, len(providers))
	for _, provider := range providers {
		registry[provider.Name()] = provider
	}

	return &Service{
		providers:    registry,
		states:       states,
		identities:   identities,
		tokens:       tokens,
		redirectBase: redirectBase,
		logger:       logger,
	}
}

/*
Initiate begins the authorization-code flow for the named provider.

Description: Mints a single-use state token, records which provider it was
issued for, and returns the provider's authorization URL for the redirect.

Parameters:
  - context: context.Context
  - providerName: string

Returns:
  - string: Authorization URL to redirect the browser to
  - error: apperr.UnsupportedProvider, apperr.FederationNotConfigured,
    or state storage failures
*/
func (service *Service) Initiate(context context.Context, providerName string) (string, error) {
	provider, err := service.lookup(providerName)
	if err != nil {
		return "", err
	}

	state, err := sec.GenerateSecureToken(constants.OAuthStateLength)
	if err != nil {
		return "", fmt.Errorf("oauth_service_state_failed: %w", err)
	}

	if err := service.states.Set(context, state, provider.Name(), constants.OAuthStateTTL); err != nil {
		return "", err
	}

	return provider.AuthorizeURL(state, service.callbackURI(provider.Name())), nil
}

/*
Callback completes the flow after the provider redirects back.

Description: Consumes the state (single use), exchanges the code, reads the
provider profile, then finds or creates the local identity keyed by email.
First-time federated users get the baseline role and no password hash. The
result is always a locally signed token whose subject is the email.

Parameters:
  - context: context.Context
  - providerName: string
  - state, code: string (from the provider's redirect)

Returns:
  - *TokenResult: Local access token
  - error: apperr.Unauthorized for bad state, apperr.FederationExchange for
    upstream failures
*/
func (service *Service) Callback(context context.Context, providerName, state, code string) (*TokenResult, error) {
	provider, err := service.lookup(providerName)
	if err != nil {
		return nil, err
	}

	// A state minted for one provider must not validate a callback from
	// another.
	mintedFor, err := service.states.Consume(context, state)
	if err != nil {
		return nil, err
	}
	if mintedFor != provider.Name() {
		return nil, apperr.Unauthorized("State token is invalid or expired")
	}

	accessToken, err := provider.Exchange(context, code, service.callbackURI(provider.Name()))
	if err != nil {
		return nil, err
	}

	profile, err := provider.FetchProfile(context, accessToken)
	if err != nil {
		return nil, err
	}

	idn, err := service.findOrCreate(context, profile)
	if err != nil {
		return nil, err
	}

	token, err := service.tokens.Issue(idn.Email)
	if err != nil {
		return nil, err
	}

	service.logger.Info("federated_login_succeeded",
		slog.String("provider", provider.Name()),
		slog.String("identity_id", idn.ID),
	)

	return &TokenResult{
		AccessToken: token,
		TokenType:   constants.TokenTypeBearer,
	}, nil
}

// lookup resolves a provider name against the closed registry.
func (service *Service) lookup(providerName string) (Provider, error) {
	provider, ok := service.providers[providerName]
	if !ok {
		return nil, apperr.UnsupportedProvider(providerName)
	}

	if !provider.Configured() {
		return nil, apperr.FederationNotConfigured(providerName)
	}

	return provider, nil
}

// callbackURI builds the externally visible callback address for a provider.
func (service *Service) callbackURI(providerName string) string {
	return fmt.Sprintf("%s/api/v1/auth/social/callback/%s", service.redirectBase, providerName)
}

// findOrCreate resolves the profile email to a local identity, creating one
// on first login. A concurrent first login for the same email races on the
// unique index; the loser recovers by re-fetching the winner's row.
func (service *Service) findOrCreate(context context.Context, profile *Profile) (*identity.Identity, error) {
	email := identity.NormalizeEmail(profile.Email)

	idn, err := service.identities.FindByEmail(context, email)
	if err == nil {
		return idn, nil
	}
	if !apperr.HasCode(err, "NOT_FOUND") {
		return nil, err
	}

	idn = &identity.Identity{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: profile.DisplayName,
		Role:        constants.BaselineRoleTag,
	}

	if err := service.identities.Create(context, idn); err != nil {
		if apperr.HasCode(err, "CONFLICT") {
			return service.identities.FindByEmail(context, email)
		}
		return nil, err
	}

	service.logger.Info("federated_identity_created",
		slog.String("identity_id", idn.ID),
		slog.String("email", email),
	)

	return idn, nil
}
