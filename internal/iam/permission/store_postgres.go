// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package permission

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

// PostgresStore implements [Store] using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed authorization store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// # Resolution

/*
EffectivePermissionNames computes the identity's effective permission set.

Description: UNION of the direct-grant join and the role-permission join in a
single round trip. UNION (not UNION ALL) deduplicates at the database.

Parameters:
  - context: context.Context
  - identityID: string

Returns:
  - []string: Deduplicated permission names
  - error: Database retrieval failures
*/
func (store *PostgresStore) EffectivePermissionNames(context context.Context, identityID string) ([]string, error) {
	const query = `
		SELECT p.name
		FROM iam.permission p
		JOIN iam.identitypermission ip ON ip.permissionid = p.id
		WHERE ip.identityid = $1
		UNION
		SELECT p.name
		FROM iam.permission p
		JOIN iam.rolepermission rp ON rp.permissionid = p.id
		JOIN iam.identity i ON i.roleid = rp.roleid
		WHERE i.id = $1`

	rows, err := store.pool.Query(context, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("postgres_permission_store_effective_failed: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres_permission_store_effective_scan_failed: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_permission_store_effective_rows_failed: %w", err)
	}

	return names, nil
}

// # Permission CRUD

/*
ListPermissions returns a page of permissions ordered by name.

Description: Uses COUNT(*) OVER() to fetch the total alongside the page.
*/
func (store *PostgresStore) ListPermissions(context context.Context, limit, offset int) ([]*Permission, int, error) {
	const query = `
		SELECT id, name, resource, action, description, createdat, updatedat,
			COUNT(*) OVER() AS total
		FROM iam.permission
		ORDER BY name
		LIMIT $1 OFFSET $2`

	rows, err := store.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_permission_store_list_failed: %w", err)
	}
	defer rows.Close()

	var permissions []*Permission
	var total int
	for rows.Next() {
		permission := &Permission{}
		if err := rows.Scan(
			&permission.ID,
			&permission.Name,
			&permission.Resource,
			&permission.Action,
			&permission.Description,
			&permission.CreatedAt,
			&permission.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_permission_store_list_scan_failed: %w", err)
		}
		permissions = append(permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_permission_store_list_rows_failed: %w", err)
	}

	return permissions, total, nil
}

/*
GetPermissionByID retrieves a single permission record.
*/
func (store *PostgresStore) GetPermissionByID(context context.Context, id string) (*Permission, error) {
	const query = `
		SELECT id, name, resource, action, description, createdat, updatedat
		FROM iam.permission
		WHERE id = $1`

	permission := &Permission{}
	err := store.pool.QueryRow(context, query, id).Scan(
		&permission.ID,
		&permission.Name,
		&permission.Resource,
		&permission.Action,
		&permission.Description,
		&permission.CreatedAt,
		&permission.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Permission")
		}
		return nil, fmt.Errorf("postgres_permission_store_get_failed: %w", err)
	}

	return permission, nil
}

/*
CreatePermission inserts a new permission row.

Description: The unique index on name rejects duplicates as apperr.Conflict.
*/
func (store *PostgresStore) CreatePermission(context context.Context, permission *Permission) error {
	const query = `
		INSERT INTO iam.permission (id, name, resource, action, description, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now()
	if permission.CreatedAt.IsZero() {
		permission.CreatedAt = now
	}
	permission.UpdatedAt = now

	_, err := store.pool.Exec(context, query,
		permission.ID,
		permission.Name,
		permission.Resource,
		permission.Action,
		permission.Description,
		permission.CreatedAt,
		permission.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Permission name already exists")
		}
		return fmt.Errorf("postgres_permission_store_create_failed: %w", err)
	}

	return nil
}

/*
UpdatePermission persists changes to an existing permission row.
*/
func (store *PostgresStore) UpdatePermission(context context.Context, permission *Permission) error {
	const query = `
		UPDATE iam.permission
		SET name = $2, resource = $3, action = $4, description = $5, updatedat = $6
		WHERE id = $1`

	permission.UpdatedAt = time.Now()
	tag, err := store.pool.Exec(context, query,
		permission.ID,
		permission.Name,
		permission.Resource,
		permission.Action,
		permission.Description,
		permission.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Permission name already exists")
		}
		return fmt.Errorf("postgres_permission_store_update_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Permission")
	}

	return nil
}

/*
DeletePermission removes a permission row.

Description: ON DELETE CASCADE on the junction tables detaches the permission
from every role and identity; the referencing rows themselves are untouched.
*/
func (store *PostgresStore) DeletePermission(context context.Context, id string) error {
	const query = "DELETE FROM iam.permission WHERE id = $1"

	tag, err := store.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_permission_store_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Permission")
	}

	return nil
}

// # Role CRUD

/*
ListRoles returns a page of roles ordered by name, without hydrated permissions.
*/
func (store *PostgresStore) ListRoles(context context.Context, limit, offset int) ([]*Role, int, error) {
	const query = `
		SELECT id, name, description, createdat, updatedat,
			COUNT(*) OVER() AS total
		FROM iam.role
		ORDER BY name
		LIMIT $1 OFFSET $2`

	rows, err := store.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_role_store_list_failed: %w", err)
	}
	defer rows.Close()

	var roles []*Role
	var total int
	for rows.Next() {
		role := &Role{}
		if err := rows.Scan(
			&role.ID,
			&role.Name,
			&role.Description,
			&role.CreatedAt,
			&role.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_role_store_list_scan_failed: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_role_store_list_rows_failed: %w", err)
	}

	return roles, total, nil
}

/*
GetRoleByID retrieves a role with its attached permissions hydrated.
*/
func (store *PostgresStore) GetRoleByID(context context.Context, id string) (*Role, error) {
	const roleQuery = `
		SELECT id, name, description, createdat, updatedat
		FROM iam.role
		WHERE id = $1`

	role := &Role{}
	err := store.pool.QueryRow(context, roleQuery, id).Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.CreatedAt,
		&role.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Role")
		}
		return nil, fmt.Errorf("postgres_role_store_get_failed: %w", err)
	}

	const permissionQuery = `
		SELECT p.id, p.name, p.resource, p.action, p.description, p.createdat, p.updatedat
		FROM iam.permission p
		JOIN iam.rolepermission rp ON rp.permissionid = p.id
		WHERE rp.roleid = $1
		ORDER BY p.name`

	rows, err := store.pool.Query(context, permissionQuery, id)
	if err != nil {
		return nil, fmt.Errorf("postgres_role_store_get_permissions_failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		permission := Permission{}
		if err := rows.Scan(
			&permission.ID,
			&permission.Name,
			&permission.Resource,
			&permission.Action,
			&permission.Description,
			&permission.CreatedAt,
			&permission.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_role_store_get_permissions_scan_failed: %w", err)
		}
		role.Permissions = append(role.Permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_role_store_get_permissions_rows_failed: %w", err)
	}

	return role, nil
}

/*
GetRoleNameByID returns only the role's name.
*/
func (store *PostgresStore) GetRoleNameByID(context context.Context, id string) (string, error) {
	const query = "SELECT name FROM iam.role WHERE id = $1"

	var name string
	if err := store.pool.QueryRow(context, query, id).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.NotFound("Role")
		}
		return "", fmt.Errorf("postgres_role_store_get_name_failed: %w", err)
	}

	return name, nil
}

/*
CreateRole inserts a role and attaches the listed permissions atomically.

Description: Insert and attachments share one transaction so a bad
permission ID rolls everything back.
*/
func (store *PostgresStore) CreateRole(context context.Context, role *Role, permissionIDs []string) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_role_store_create_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	const insertQuery = `
		INSERT INTO iam.role (id, name, description, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5)`

	now := time.Now()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now

	if _, err := transaction.Exec(context, insertQuery,
		role.ID,
		role.Name,
		role.Description,
		role.CreatedAt,
		role.UpdatedAt,
	); err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Role name already exists")
		}
		return fmt.Errorf("postgres_role_store_create_failed: %w", err)
	}

	if err := attachPermissions(context, transaction, role.ID, permissionIDs); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_role_store_create_commit_failed: %w", err)
	}

	return nil
}

/*
UpdateRole persists role changes, replacing the attached permission set when
permissionIDs is non-nil (clear-then-reattach) and leaving it untouched when nil.
*/
func (store *PostgresStore) UpdateRole(context context.Context, role *Role, permissionIDs []string) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_role_store_update_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	const updateQuery = `
		UPDATE iam.role
		SET name = $2, description = $3, updatedat = $4
		WHERE id = $1`

	role.UpdatedAt = time.Now()
	tag, err := transaction.Exec(context, updateQuery,
		role.ID,
		role.Name,
		role.Description,
		role.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Role name already exists")
		}
		return fmt.Errorf("postgres_role_store_update_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Role")
	}

	if permissionIDs != nil {
		const clearQuery = "DELETE FROM iam.rolepermission WHERE roleid = $1"
		if _, err := transaction.Exec(context, clearQuery, role.ID); err != nil {
			return fmt.Errorf("postgres_role_store_update_clear_failed: %w", err)
		}

		if err := attachPermissions(context, transaction, role.ID, permissionIDs); err != nil {
			return err
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_role_store_update_commit_failed: %w", err)
	}

	return nil
}

/*
DeleteRole removes a role row.

Description: Junction rows cascade away and referencing identities keep their
row with roleid reset to NULL by the schema. Identities are never deleted here.
*/
func (store *PostgresStore) DeleteRole(context context.Context, id string) error {
	const query = "DELETE FROM iam.role WHERE id = $1"

	tag, err := store.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_role_store_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Role")
	}

	return nil
}

// attachPermissions links each permission ID to the role within the caller's
// transaction. An unknown ID fails the whole unit of work.
func attachPermissions(context context.Context, transaction pgx.Tx, roleID string, permissionIDs []string) error {
	const query = "INSERT INTO iam.rolepermission (roleid, permissionid) VALUES ($1, $2)"

	for _, permissionID := range permissionIDs {
		if _, err := transaction.Exec(context, query, roleID, permissionID); err != nil {
			if dberr.IsForeignKeyViolation(err) {
				return apperr.NotFound("Permission")
			}
			return fmt.Errorf("postgres_role_store_attach_failed: %w", err)
		}
	}

	return nil
}
