// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/annotide/annotide/internal/platform/apperr"
	"github.com/annotide/annotide/internal/platform/dberr"
)

// PostgresStore implements the [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the identity [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
FindByID retrieves an identity record by its unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Identity: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (store *PostgresStore) FindByID(context context.Context, id string) (*Identity, error) {
	const query = `
		SELECT id, email, passwordhash, displayname, role, roleid, createdat, updatedat
		FROM iam.identity
		WHERE id = $1`

	return store.scanOne(context, query, id, "Identity")
}

/*
FindByEmail retrieves an identity record by its normalized email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Identity: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (store *PostgresStore) FindByEmail(context context.Context, email string) (*Identity, error) {
	const query = `
		SELECT id, email, passwordhash, displayname, role, roleid, createdat, updatedat
		FROM iam.identity
		WHERE email = $1`

	return store.scanOne(context, query, NormalizeEmail(email), "Identity")
}

/*
Create persists a new identity record into the iam.identity table.

Description: The unique index on email turns a concurrent create for the
same address into an apperr.Conflict, which the federation service recovers
by re-fetching.

Parameters:
  - context: context.Context
  - identity: *Identity

Returns:
  - error: apperr.Conflict on duplicate email, or persistence failures
*/
func (store *PostgresStore) Create(context context.Context, identity *Identity) error {
	const query = `
		INSERT INTO iam.identity (
			id, email, passwordhash, displayname, role, roleid, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now
	identity.Email = NormalizeEmail(identity.Email)

	_, err := store.pool.Exec(context, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		identity.DisplayName,
		identity.Role,
		identity.RoleID,
		identity.CreatedAt,
		identity.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Identity already exists")
		}
		return fmt.Errorf("postgres_identity_store_create_failed: %w", err)
	}

	return nil
}

// scanOne runs a single-row identity query and maps pgx.ErrNoRows to NotFound.
func (store *PostgresStore) scanOne(context context.Context, query, arg, resource string) (*Identity, error) {
	identity := &Identity{}
	err := store.pool.QueryRow(context, query, arg).Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.DisplayName,
		&identity.Role,
		&identity.RoleID,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(resource)
		}
		return nil, fmt.Errorf("postgres_identity_store_find_failed: %w", err)
	}

	return identity, nil
}
