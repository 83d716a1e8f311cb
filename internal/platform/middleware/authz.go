// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

// Access control middleware for the Annotide API server.
//
// # Architecture
//
// Authentication and authorization are split into two stages. [Authenticate]
// verifies the bearer token and injects claims; it never blocks anonymous
// requests. [AccessGate.Require] sits on protected routes and enforces the
// 401/403 distinction: missing or dangling authentication is 401, an
// authenticated identity lacking every required permission is 403.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/annotide/annotide/internal/iam/identity"
	"github.com/annotide/annotide/internal/platform/apperr"
	"github.com/annotide/annotide/internal/platform/ctxutil"
	"github.com/annotide/annotide/internal/platform/respond"
	"github.com/annotide/annotide/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the concrete
// [sec.TokenService], allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	Verify(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
//
// Expired and otherwise-invalid tokens both abort with 401 but carry distinct
// error codes so clients can tell a refreshable session from a broken one.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.TokenInvalid(nil))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.Verify(parts[1])
			if err != nil {
				if errors.Is(err, sec.ErrTokenExpired) {
					respond.Error(writer, request, apperr.TokenExpired(err))
					return
				}
				respond.Error(writer, request, apperr.TokenInvalid(err))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithClaims(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// IdentitySource resolves the token subject to a stored identity.
type IdentitySource interface {
	FindByEmail(ctx context.Context, email string) (*identity.Identity, error)
}

// PermissionSource computes an identity's effective permission set.
type PermissionSource interface {
	EffectivePermissions(ctx context.Context, idn *identity.Identity) (map[string]struct{}, error)
}

// AccessGate enforces permission requirements on protected routes.
type AccessGate struct {
	identities  IdentitySource
	permissions PermissionSource
}

// NewAccessGate constructs an [AccessGate] over the given sources.
func NewAccessGate(identities IdentitySource, permissions PermissionSource) *AccessGate {
	return &AccessGate{
		identities:  identities,
		permissions: permissions,
	}
}

// Require blocks requests whose effective permission set contains none of the
// given names (any-of semantics).
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It implies the
// authentication check so routes never need a separate guard.
//
// # Flow
//  1. Check if [*sec.AuthClaims] exists in context; missing → 401.
//  2. Resolve the subject to a stored identity; vanished identity → 401.
//  3. Recompute the effective permission set; no match → 403 carrying the
//     required names.
//  4. Inject the resolved [*identity.Identity] into the request context.
func (gate *AccessGate) Require(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Authentication Check ───────────────────────────────────────
			claims := ctxutil.GetClaims(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Identity Resolution ────────────────────────────────────────
			// A valid token whose subject no longer exists is treated the same
			// as no authentication at all, not as a permission failure.
			idn, err := gate.identities.FindByEmail(request.Context(), claims.Subject)
			if err != nil {
				if apperr.HasCode(err, "NOT_FOUND") {
					respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
					return
				}
				respond.Error(writer, request, err)
				return
			}

			// ── 3. Authorization Check ────────────────────────────────────────
			effective, err := gate.permissions.EffectivePermissions(request.Context(), idn)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			allowed := false
			for _, name := range names {
				if _, ok := effective[name]; ok {
					allowed = true
					break
				}
			}

			if !allowed {
				respond.Error(writer, request, apperr.InsufficientPermission(names...))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), idn)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}
