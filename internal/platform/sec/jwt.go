// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces (TokenIssuer, TokenVerifier).
//
// # Known Limitation
//
// Tokens are stateless and there is no revocation store: a token stays valid
// for its full TTL even if the identity is deleted or its permissions are
// revoked mid-lifetime. This is a deliberate simplicity trade-off; deleted
// identities are still rejected at the gate because the subject no longer
// resolves, but permission revocations only take effect on the next check.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failure kinds. Both map to 401 outwardly, but they stay
// distinguishable for tests and observability.
var (
	// ErrTokenInvalid covers malformed tokens, wrong signing methods, and
	// bad signatures.
	ErrTokenInvalid = errors.New("sec: invalid token")

	// ErrTokenExpired covers structurally valid, correctly signed tokens
	// whose expiry has passed.
	ErrTokenExpired = errors.New("sec: token expired")
)

// AuthClaims represents the payload embedded inside a bearer token.
//
// The subject claim is the identity's email — the sole link back to the
// identity record. Permissions are never embedded: they are recomputed from
// the store on every gated request so checks always reflect current grants.
type AuthClaims struct {
	jwt.RegisteredClaims
}

// TokenService handles generation and verification of bearer tokens using
// HS256 over a process-wide symmetric key.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService creates a new TokenService.
//
// # Parameters
//   - secret: The symmetric signing key (process-wide configuration).
//   - issuer: The 'iss' claim stamped on every token.
//   - ttl: The default lifetime for issued tokens.
func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: signing secret must not be empty")
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}, nil
}

// Issue creates a signed bearer token for the given subject using the
// service-wide TTL.
func (service *TokenService) Issue(subject string) (string, error) {
	return service.IssueWithTTL(subject, service.ttl)
}

// IssueWithTTL creates a signed bearer token with an explicit lifetime.
func (service *TokenService) IssueWithTTL(subject string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature and validity of a bearer token string.
//
// # Failure Kinds
//
// Returns [ErrTokenExpired] when the token is well-formed and correctly
// signed but past its expiry, and [ErrTokenInvalid] for everything else.
// Expiry comparison uses the local wall clock with no grace window.
func (service *TokenService) Verify(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		// An expired-but-authentic token is a distinct failure kind.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
