// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package permission

import (
	"context"
	"log/slog"

	"github.com/annotide/annotide/internal/iam/identity"
	"github.com/annotide/annotide/internal/platform/apperr"
	"github.com/annotide/annotide/internal/platform/validate"
	"github.com/annotide/annotide/pkg/slice"
	"github.com/annotide/annotide/pkg/uuid"
)

// # Field Names

const (
	FieldName          = "name"
	FieldResource      = "resource"
	FieldAction        = "action"
	FieldDescription   = "description"
	FieldPermissionIDs = "permission_ids"
)

// # Service Layer

// Service resolves effective permissions and orchestrates the admin surface.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService constructs a new permission [Service].
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// # Resolution

/*
EffectivePermissions computes the identity's effective permission set.

Description: Union of direct grants and role-attached permissions, recomputed
on every call. Returned as a set for O(1) membership checks.

Parameters:
  - context: context.Context
  - idn: *identity.Identity

Returns:
  - map[string]struct{}: Effective permission names
  - error: Database retrieval failures
*/
func (service *Service) EffectivePermissions(context context.Context, idn *identity.Identity) (map[string]struct{}, error) {
	names, err := service.store.EffectivePermissionNames(context, idn.ID)
	if err != nil {
		return nil, err
	}

	effective := make(map[string]struct{}, len(names))
	for _, name := range names {
		effective[name] = struct{}{}
	}

	return effective, nil
}

/*
HasPermission reports whether the identity's effective set contains name.

Parameters:
  - context: context.Context
  - idn: *identity.Identity
  - name: string

Returns:
  - bool: True when the permission is held
  - error: Database retrieval failures
*/
func (service *Service) HasPermission(context context.Context, idn *identity.Identity, name string) (bool, error) {
	effective, err := service.EffectivePermissions(context, idn)
	if err != nil {
		return false, err
	}

	_, ok := effective[name]
	return ok, nil
}

/*
EffectiveRoles returns the identity's role names.

Description: Union of the legacy role tag on the identity row and the name of
the linked role record, deduplicated. A dangling role link is skipped rather
than failing the read.

Parameters:
  - context: context.Context
  - idn: *identity.Identity

Returns:
  - []string: Role names
  - error: Database retrieval failures
*/
func (service *Service) EffectiveRoles(context context.Context, idn *identity.Identity) ([]string, error) {
	var roles []string
	if idn.Role != "" {
		roles = append(roles, idn.Role)
	}

	if idn.RoleID != nil {
		name, err := service.store.GetRoleNameByID(context, *idn.RoleID)
		switch {
		case err == nil:
			roles = append(roles, name)
		case apperr.HasCode(err, "NOT_FOUND"):
			service.logger.Warn("dangling_role_link",
				slog.String("identity_id", idn.ID),
				slog.String("role_id", *idn.RoleID),
			)
		default:
			return nil, err
		}
	}

	return slice.Unique(roles), nil
}

// # Permission Management

/*
ListPermissions retrieves a paginated list of permissions.

Parameters:
  - context: context.Context
  - limit, offset: int

Returns:
  - []*Permission: Page of permissions
  - int: Total count
  - error: Retrieval errors
*/
func (service *Service) ListPermissions(context context.Context, limit, offset int) ([]*Permission, int, error) {
	return service.store.ListPermissions(context, limit, offset)
}

/*
GetPermission retrieves a permission by its UUID.
*/
func (service *Service) GetPermission(context context.Context, id string) (*Permission, error) {
	return service.store.GetPermissionByID(context, id)
}

/*
CreatePermission validates and persists a new permission.

Description: Name must follow the "<resource>:<action>" form. Duplicate names
surface as apperr.Conflict from the store.

Parameters:
  - context: context.Context
  - permission: *Permission

Returns:
  - error: Validation or persistence failures
*/
func (service *Service) CreatePermission(context context.Context, permission *Permission) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, permission.Name).PermissionName(FieldName, permission.Name)
	validator.Required(FieldResource, permission.Resource).MaxLen(FieldResource, permission.Resource, 100)
	validator.Required(FieldAction, permission.Action).MaxLen(FieldAction, permission.Action, 100)

	if err := validator.Err(); err != nil {
		return err
	}

	permission.ID = uuid.New()

	if err := service.store.CreatePermission(context, permission); err != nil {
		return err
	}

	service.logger.Info("permission_created",
		slog.String("permission_id", permission.ID),
		slog.String("name", permission.Name),
	)

	return nil
}

// UpdatePermissionInput carries the mutable permission fields. Nil pointers
// leave the stored value unchanged.
type UpdatePermissionInput struct {
	Name        *string `json:"name"`
	Resource    *string `json:"resource"`
	Action      *string `json:"action"`
	Description *string `json:"description"`
}

/*
UpdatePermission applies a partial update to an existing permission.

Parameters:
  - context: context.Context
  - id: string
  - input: UpdatePermissionInput

Returns:
  - *Permission: Updated entity
  - error: Validation or persistence failures
*/
func (service *Service) UpdatePermission(context context.Context, id string, input UpdatePermissionInput) (*Permission, error) {
	permission, err := service.store.GetPermissionByID(context, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		permission.Name = *input.Name
	}
	if input.Resource != nil {
		permission.Resource = *input.Resource
	}
	if input.Action != nil {
		permission.Action = *input.Action
	}
	if input.Description != nil {
		permission.Description = input.Description
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, permission.Name).PermissionName(FieldName, permission.Name)
	validator.Required(FieldResource, permission.Resource).MaxLen(FieldResource, permission.Resource, 100)
	validator.Required(FieldAction, permission.Action).MaxLen(FieldAction, permission.Action, 100)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.store.UpdatePermission(context, permission); err != nil {
		return nil, err
	}

	return permission, nil
}

/*
DeletePermission removes a permission. Grants referencing it are detached by
the schema; identities and roles are untouched.
*/
func (service *Service) DeletePermission(context context.Context, id string) error {
	if err := service.store.DeletePermission(context, id); err != nil {
		return err
	}

	service.logger.Info("permission_deleted", slog.String("permission_id", id))
	return nil
}

// # Role Management

/*
ListRoles retrieves a paginated list of roles.
*/
func (service *Service) ListRoles(context context.Context, limit, offset int) ([]*Role, int, error) {
	return service.store.ListRoles(context, limit, offset)
}

/*
GetRole retrieves a role by its UUID with attached permissions hydrated.
*/
func (service *Service) GetRole(context context.Context, id string) (*Role, error) {
	return service.store.GetRoleByID(context, id)
}

/*
CreateRole validates and persists a new role with its permission attachments.

Parameters:
  - context: context.Context
  - role: *Role
  - permissionIDs: []string

Returns:
  - error: Validation or persistence failures
*/
func (service *Service) CreateRole(context context.Context, role *Role, permissionIDs []string) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, role.Name).MaxLen(FieldName, role.Name, 100)
	for _, permissionID := range permissionIDs {
		validator.UUID(FieldPermissionIDs, permissionID)
	}

	if err := validator.Err(); err != nil {
		return err
	}

	role.ID = uuid.New()

	if err := service.store.CreateRole(context, role, slice.Unique(permissionIDs)); err != nil {
		return err
	}

	service.logger.Info("role_created",
		slog.String("role_id", role.ID),
		slog.String("name", role.Name),
	)

	return nil
}

// UpdateRoleInput carries the mutable role fields. Nil Name/Description leave
// the stored value unchanged; a nil PermissionIDs slice leaves the attached
// set untouched, while a non-nil slice (including an empty one) replaces it.
type UpdateRoleInput struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	PermissionIDs []string `json:"permission_ids"`
}

/*
UpdateRole applies a partial update to an existing role.

Description: The replace-vs-omit distinction for the attached permission set
rides on slice nilness, matching the JSON absent-vs-null-vs-list shape.

Parameters:
  - context: context.Context
  - id: string
  - input: UpdateRoleInput

Returns:
  - *Role: Updated entity with permissions hydrated
  - error: Validation or persistence failures
*/
func (service *Service) UpdateRole(context context.Context, id string, input UpdateRoleInput) (*Role, error) {
	role, err := service.store.GetRoleByID(context, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		role.Name = *input.Name
	}
	if input.Description != nil {
		role.Description = input.Description
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, role.Name).MaxLen(FieldName, role.Name, 100)
	for _, permissionID := range input.PermissionIDs {
		validator.UUID(FieldPermissionIDs, permissionID)
	}

	if err := validator.Err(); err != nil {
		return nil, err
	}

	permissionIDs := input.PermissionIDs
	if permissionIDs != nil {
		permissionIDs = slice.Unique(permissionIDs)
	}

	if err := service.store.UpdateRole(context, role, permissionIDs); err != nil {
		return nil, err
	}

	return service.store.GetRoleByID(context, id)
}

/*
DeleteRole removes a role. Identities linked to it keep their rows; the link
is cleared by the schema.
*/
func (service *Service) DeleteRole(context context.Context, id string) error {
	if err := service.store.DeleteRole(context, id); err != nil {
		return err
	}

	service.logger.Info("role_deleted", slog.String("role_id", id))
	return nil
}
