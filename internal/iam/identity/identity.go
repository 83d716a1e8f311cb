// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

/*
Package identity defines the core identity entity and its storage contract.

The identity record itself is owned by the surrounding account-management
layer; the IAM core only reads records (login, gate resolution) and creates
them (first federated login). Everything else — profile edits, registration
forms, deactivation — lives outside this module and talks to the same table.
*/
package identity

import (
	"time"
)

// # Domain Entities

// Identity represents an authenticated principal on the Annotide platform.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	// PasswordHash is nil for federated-only identities that never set a
	// local password. Explicitly omitted from JSON for security.
	PasswordHash *string `json:"-"`

	DisplayName string `json:"name"`

	// Role is the legacy single-role tag kept for backward compatibility
	// with records that predate the permission model. Free text, not an enum.
	Role string `json:"role"`

	// RoleID optionally links the identity to a managed Role whose
	// permissions contribute to the effective set.
	RoleID *string `json:"role_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Field Identifiers

// Global field names for validation and response mapping in the IAM domain.
const (
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldUsername    = "username"
	FieldAccessToken = "access_token"
	FieldTokenType   = "token_type"
	FieldUser        = "user"
	FieldProvider    = "provider"
)
