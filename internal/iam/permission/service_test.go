// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package permission_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annotide/annotide/internal/iam/identity"
	"github.com/annotide/annotide/internal/iam/permission"
	"github.com/annotide/annotide/internal/platform/apperr"
)

// fakeStore is an in-memory permission.Store. It records the permissionIDs
// argument of the last UpdateRole call so tests can assert the
// replace-vs-omit semantics.
type fakeStore struct {
	effective   map[string][]string // identityID -> names
	roleNames   map[string]string   // roleID -> name
	roles       map[string]*permission.Role
	permissions map[string]*permission.Permission

	lastUpdateRoleIDs []string
	updateRoleCalled  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		effective:   map[string][]string{},
		roleNames:   map[string]string{},
		roles:       map[string]*permission.Role{},
		permissions: map[string]*permission.Permission{},
	}
}

func (store *fakeStore) EffectivePermissionNames(_ context.Context, identityID string) ([]string, error) {
	return store.effective[identityID], nil
}

func (store *fakeStore) ListPermissions(_ context.Context, _, _ int) ([]*permission.Permission, int, error) {
	return nil, 0, nil
}

func (store *fakeStore) GetPermissionByID(_ context.Context, id string) (*permission.Permission, error) {
	p, ok := store.permissions[id]
	if !ok {
		return nil, apperr.NotFound("Permission")
	}
	copied := *p
	return &copied, nil
}

func (store *fakeStore) CreatePermission(_ context.Context, p *permission.Permission) error {
	store.permissions[p.ID] = p
	return nil
}

func (store *fakeStore) UpdatePermission(_ context.Context, p *permission.Permission) error {
	store.permissions[p.ID] = p
	return nil
}

func (store *fakeStore) DeletePermission(_ context.Context, id string) error {
	delete(store.permissions, id)
	return nil
}

func (store *fakeStore) ListRoles(_ context.Context, _, _ int) ([]*permission.Role, int, error) {
	return nil, 0, nil
}

func (store *fakeStore) GetRoleByID(_ context.Context, id string) (*permission.Role, error) {
	role, ok := store.roles[id]
	if !ok {
		return nil, apperr.NotFound("Role")
	}
	copied := *role
	return &copied, nil
}

func (store *fakeStore) GetRoleNameByID(_ context.Context, id string) (string, error) {
	name, ok := store.roleNames[id]
	if !ok {
		return "", apperr.NotFound("Role")
	}
	return name, nil
}

func (store *fakeStore) CreateRole(_ context.Context, role *permission.Role, permissionIDs []string) error {
	store.roles[role.ID] = role
	store.roleNames[role.ID] = role.Name
	return nil
}

func (store *fakeStore) UpdateRole(_ context.Context, role *permission.Role, permissionIDs []string) error {
	store.updateRoleCalled = true
	store.lastUpdateRoleIDs = permissionIDs
	store.roles[role.ID] = role
	store.roleNames[role.ID] = role.Name
	return nil
}

func (store *fakeStore) DeleteRole(_ context.Context, id string) error {
	delete(store.roles, id)
	delete(store.roleNames, id)
	return nil
}

func newService(store permission.Store) *permission.Service {
	return permission.NewService(store, slog.Default())
}

/*
TestService_EffectivePermissions verifies that direct grants and role
permissions are unioned and deduplicated into a set.
*/
func TestService_EffectivePermissions(t *testing.T) {
	store := newFakeStore()
	// The store already returns the union; annotations:read appears once
	// even if granted both directly and via the role.
	store.effective["idn-1"] = []string{"annotations:read", "annotations:write", "labels:read"}

	service := newService(store)
	idn := &identity.Identity{ID: "idn-1", Email: "reader@annotide.dev"}

	effective, err := service.EffectivePermissions(context.Background(), idn)
	require.NoError(t, err)

	assert.Len(t, effective, 3)
	assert.Contains(t, effective, "annotations:read")
	assert.Contains(t, effective, "annotations:write")
	assert.Contains(t, effective, "labels:read")
}

/*
TestService_HasPermission verifies membership checks against the effective set.
*/
func TestService_HasPermission(t *testing.T) {
	store := newFakeStore()
	store.effective["idn-1"] = []string{"annotations:read", "labels:write"}

	service := newService(store)
	idn := &identity.Identity{ID: "idn-1"}

	held, err := service.HasPermission(context.Background(), idn, "labels:write")
	require.NoError(t, err)
	assert.True(t, held)

	held, err = service.HasPermission(context.Background(), idn, "projects:delete")
	require.NoError(t, err)
	assert.False(t, held)
}

/*
TestService_EffectiveRoles verifies the union of the legacy role tag and the
linked role name, including deduplication when they coincide.
*/
func TestService_EffectiveRoles(t *testing.T) {
	store := newFakeStore()
	store.roleNames["role-1"] = "moderator"

	service := newService(store)

	t.Run("tag_and_link", func(t *testing.T) {
		roleID := "role-1"
		idn := &identity.Identity{ID: "idn-1", Role: "user", RoleID: &roleID}

		roles, err := service.EffectiveRoles(context.Background(), idn)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"user", "moderator"}, roles)
	})

	t.Run("duplicate_collapses", func(t *testing.T) {
		store.roleNames["role-2"] = "user"
		roleID := "role-2"
		idn := &identity.Identity{ID: "idn-1", Role: "user", RoleID: &roleID}

		roles, err := service.EffectiveRoles(context.Background(), idn)
		require.NoError(t, err)
		assert.Equal(t, []string{"user"}, roles)
	})

	t.Run("dangling_link_skipped", func(t *testing.T) {
		roleID := "role-gone"
		idn := &identity.Identity{ID: "idn-1", Role: "user", RoleID: &roleID}

		roles, err := service.EffectiveRoles(context.Background(), idn)
		require.NoError(t, err)
		assert.Equal(t, []string{"user"}, roles)
	})
}

/*
TestService_UpdateRole_ReplaceVsOmit verifies that a supplied permission list
replaces the attached set while an absent list leaves it untouched.
*/
func TestService_UpdateRole_ReplaceVsOmit(t *testing.T) {
	newDescribedRole := func(store *fakeStore) *permission.Role {
		role := &permission.Role{ID: "0191a2b3-0000-7000-8000-00000000000a", Name: "curator"}
		store.roles[role.ID] = role
		store.roleNames[role.ID] = role.Name
		return role
	}

	t.Run("non_nil_list_replaces", func(t *testing.T) {
		store := newFakeStore()
		role := newDescribedRole(store)
		service := newService(store)

		ids := []string{"0191a2b3-0000-7000-8000-000000000001", "0191a2b3-0000-7000-8000-000000000002"}
		_, err := service.UpdateRole(context.Background(), role.ID, permission.UpdateRoleInput{
			PermissionIDs: ids,
		})
		require.NoError(t, err)

		assert.True(t, store.updateRoleCalled)
		assert.Equal(t, ids, store.lastUpdateRoleIDs)
	})

	t.Run("empty_list_clears", func(t *testing.T) {
		store := newFakeStore()
		role := newDescribedRole(store)
		service := newService(store)

		_, err := service.UpdateRole(context.Background(), role.ID, permission.UpdateRoleInput{
			PermissionIDs: []string{},
		})
		require.NoError(t, err)

		assert.NotNil(t, store.lastUpdateRoleIDs)
		assert.Empty(t, store.lastUpdateRoleIDs)
	})

	t.Run("nil_list_leaves_untouched", func(t *testing.T) {
		store := newFakeStore()
		role := newDescribedRole(store)
		service := newService(store)

		newName := "senior-curator"
		_, err := service.UpdateRole(context.Background(), role.ID, permission.UpdateRoleInput{
			Name: &newName,
		})
		require.NoError(t, err)

		assert.True(t, store.updateRoleCalled)
		assert.Nil(t, store.lastUpdateRoleIDs)
		assert.Equal(t, "senior-curator", store.roles[role.ID].Name)
	})
}

/*
TestService_CreatePermission_Validation verifies the canonical name check.
*/
func TestService_CreatePermission_Validation(t *testing.T) {
	service := newService(newFakeStore())

	err := service.CreatePermission(context.Background(), &permission.Permission{
		Name:     "Not A Name",
		Resource: "labels",
		Action:   "write",
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
}

/*
TestService_CreatePermission_AssignsID verifies UUID assignment on create.
*/
func TestService_CreatePermission_AssignsID(t *testing.T) {
	store := newFakeStore()
	service := newService(store)

	p := &permission.Permission{Name: "labels:write", Resource: "labels", Action: "write"}
	require.NoError(t, service.CreatePermission(context.Background(), p))

	assert.NotEmpty(t, p.ID)
	assert.Contains(t, store.permissions, p.ID)
}
