// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package identity

import (
	"context"
	"strings"
)

// # Identity Data Access

// Store defines the narrow data access contract the IAM core holds on
// identity records. CRUD beyond lookup and federated creation belongs to the
// surrounding account layer.
type Store interface {

	/*
		FindByID returns the identity with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Identity: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Identity, error)

	/*
		FindByEmail returns the identity with the given normalized email.

		Parameters:
		  - context: context.Context
		  - email: string (callers must pass the NormalizeEmail form)

		Returns:
		  - *Identity: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*Identity, error)

	/*
		Create persists a brand-new identity record.

		Description: Used exclusively by the federated find-or-create path.
		A concurrent insert for the same email must surface the store's
		unique-constraint conflict, never a second row.

		Parameters:
		  - context: context.Context
		  - identity: *Identity

		Returns:
		  - error: apperr.Conflict on duplicate email, or persistence failures
	*/
	Create(context context.Context, identity *Identity) error
}

// NormalizeEmail canonicalizes an email address for lookup and storage.
// Case-insensitive matching is an invariant of the identity table.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
