// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

// Package auth implements the credential authentication use cases.
//
// # Architecture
//
// The service orchestrates the identity store, password verification, and
// token minting through interfaces. It is technology-agnostic and does not
// know about HTTP or SQL.
//
// # Review Process
//
// This service is critical for security. Any changes to verification or
// login logic must be reviewed by the security team.
package auth

import (
	"context"
	"log/slog"
	"sort"

	"github.com/annotide/annotide/internal/iam/identity"
	"github.com/annotide/annotide/internal/platform/apperr"
	"github.com/annotide/annotide/internal/platform/constants"
	"github.com/annotide/annotide/internal/platform/sec"
)

// TokenIssuer defines the contract for minting access tokens.
type TokenIssuer interface {
	// Issue creates a signed JWT whose subject is the identity email.
	Issue(subject string) (string, error)
}

// PermissionResolver computes effective permissions and roles for an identity.
type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, idn *identity.Identity) (map[string]struct{}, error)
	EffectiveRoles(ctx context.Context, idn *identity.Identity) ([]string, error)
}

// Service implements credential authentication use cases.
type Service struct {
	identities identity.Store
	resolver   PermissionResolver
	tokens     TokenIssuer
	logger     *slog.Logger
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	identities identity.Store,
	resolver PermissionResolver,
	tokens TokenIssuer,
	logger *slog.Logger,
) *Service {
	return &Service{
		identities: identities,
		resolver:   resolver,
		tokens:     tokens,
		logger:     logger,
	}
}

/*
Authenticate verifies an email/password pair against the identity store.

Description: Every failure mode — unknown email, federated-only identity
without a password hash, wrong password — collapses into the single
[apperr.InvalidCredentials] value so responses never reveal which check
failed. Verification itself accepts both the current argon2id format and
legacy bcrypt hashes.

Parameters:
  - context: context.Context
  - email: string (normalized before lookup)
  - password: string

Returns:
  - *identity.Identity: The authenticated identity
  - error: apperr.InvalidCredentials or infrastructure failures

# Business Rules
  - No account lockout and no attempt throttling beyond the global rate
    limiter; repeated failures carry no state.
  - No side effects: a failed attempt writes nothing.
*/
func (service *Service) Authenticate(context context.Context, email, password string) (*identity.Identity, error) {
	email = identity.NormalizeEmail(email)

	idn, err := service.identities.FindByEmail(context, email)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return nil, apperr.InvalidCredentials()
		}
		return nil, err
	}

	// Federated identities have no local password.
	if idn.PasswordHash == nil {
		return nil, apperr.InvalidCredentials()
	}

	if !sec.CheckPasswordHash(password, *idn.PasswordHash) {
		return nil, apperr.InvalidCredentials()
	}

	return idn, nil
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	User        Profile `json:"user"`
}

// Profile is the identity summary returned to authenticated clients.
type Profile struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

/*
Login authenticates the credentials and mints a bearer session.

Parameters:
  - context: context.Context
  - email, password: string

Returns:
  - *Session: Access token plus the identity summary
  - error: apperr.InvalidCredentials or infrastructure failures
*/
func (service *Service) Login(context context.Context, email, password string) (*Session, error) {
	idn, err := service.Authenticate(context, email, password)
	if err != nil {
		return nil, err
	}

	token, err := service.tokens.Issue(idn.Email)
	if err != nil {
		return nil, err
	}

	profile, err := service.buildProfile(context, idn)
	if err != nil {
		return nil, err
	}

	service.logger.Info("login_succeeded", slog.String("identity_id", idn.ID))

	return &Session{
		AccessToken: token,
		TokenType:   constants.TokenTypeBearer,
		User:        *profile,
	}, nil
}

/*
IssueToken authenticates the credentials and returns a bare token pair,
matching the OAuth2 password-grant response shape.

Returns:
  - string: Signed access token
  - error: apperr.InvalidCredentials or infrastructure failures
*/
func (service *Service) IssueToken(context context.Context, email, password string) (string, error) {
	idn, err := service.Authenticate(context, email, password)
	if err != nil {
		return "", err
	}

	return service.tokens.Issue(idn.Email)
}

/*
ProfileByEmail resolves the identity behind an authenticated subject and
returns its summary with effective permissions and roles.
*/
func (service *Service) ProfileByEmail(context context.Context, email string) (*Profile, error) {
	idn, err := service.identities.FindByEmail(context, identity.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return service.buildProfile(context, idn)
}

// buildProfile assembles the identity summary. Permission names are sorted
// for a stable response shape.
func (service *Service) buildProfile(context context.Context, idn *identity.Identity) (*Profile, error) {
	effective, err := service.resolver.EffectivePermissions(context, idn)
	if err != nil {
		return nil, err
	}

	permissions := make([]string, 0, len(effective))
	for name := range effective {
		permissions = append(permissions, name)
	}
	sort.Strings(permissions)

	roles, err := service.resolver.EffectiveRoles(context, idn)
	if err != nil {
		return nil, err
	}

	return &Profile{
		ID:          idn.ID,
		Email:       idn.Email,
		DisplayName: idn.DisplayName,
		Permissions: permissions,
		Roles:       roles,
	}, nil
}
