// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package permission

import "context"

// # Permission & Role Data Access

// Store defines the data access contract for the authorization model.
type Store interface {

	/*
		EffectivePermissionNames returns the union of the identity's direct
		grants and the permissions of its linked role, deduplicated.

		Description: Single round trip; recomputed on every call so the
		result is always consistent with the latest grants.

		Parameters:
		  - context: context.Context
		  - identityID: string

		Returns:
		  - []string: Deduplicated permission names
		  - error: Database retrieval failures
	*/
	EffectivePermissionNames(context context.Context, identityID string) ([]string, error)

	/*
		ListPermissions returns a page of permission records plus the total count.
	*/
	ListPermissions(context context.Context, limit, offset int) ([]*Permission, int, error)

	/*
		GetPermissionByID returns the permission with the given ID.

		Returns:
		  - *Permission: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	GetPermissionByID(context context.Context, id string) (*Permission, error)

	/*
		CreatePermission persists a new permission record.

		Description: A duplicate name must surface the store's unique
		constraint as apperr.Conflict, never be silently ignored.
	*/
	CreatePermission(context context.Context, permission *Permission) error

	/*
		UpdatePermission persists changes to an existing permission record.
	*/
	UpdatePermission(context context.Context, permission *Permission) error

	/*
		DeletePermission removes a permission record.

		Description: Junction rows referencing the permission are cascaded
		away by the schema; referencing roles/identities are never touched.

		Returns:
		  - error: apperr.NotFound when the ID does not exist
	*/
	DeletePermission(context context.Context, id string) error

	/*
		ListRoles returns a page of role records plus the total count.
		Attached permissions are not hydrated on list reads.
	*/
	ListRoles(context context.Context, limit, offset int) ([]*Role, int, error)

	/*
		GetRoleByID returns the role with the given ID, permissions hydrated.
	*/
	GetRoleByID(context context.Context, id string) (*Role, error)

	/*
		GetRoleNameByID returns only the role's name. Used by the effective
		roles read path to avoid hydrating the full permission list.
	*/
	GetRoleNameByID(context context.Context, id string) (string, error)

	/*
		CreateRole persists a new role and attaches the listed permissions
		in a single atomic unit of work.
	*/
	CreateRole(context context.Context, role *Role, permissionIDs []string) error

	/*
		UpdateRole persists changes to a role.

		Description: When permissionIDs is non-nil the attached set is
		replaced wholesale (clear-then-reattach) inside one transaction;
		when nil the existing set is left untouched.
	*/
	UpdateRole(context context.Context, role *Role, permissionIDs []string) error

	/*
		DeleteRole removes a role record, cascading junction rows only.

		Returns:
		  - error: apperr.NotFound when the ID does not exist
	*/
	DeleteRole(context context.Context, id string) error
}
