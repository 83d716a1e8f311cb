// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

/*
Package permission implements the role-based authorization model.

It resolves an identity's effective permission set — the deduplicated union
of direct grants and role-attached permissions — and exposes the admin-gated
CRUD surface for managing Permission and Role records.

# Core Responsibility

  - Resolution: Computes effective permissions fresh on every check; the
    union is never cached or materialized, so checks always reflect the
    latest grants.
  - Administration: Permission/Role lifecycle with replace-semantics role
    updates and cascading association cleanup on delete.

Permission names follow the canonical "<resource>:<action>" form, e.g.
"labels:write". The action vocabulary (read/write/delete) is a convention,
not a closed enum.
*/
package permission

import "time"

// # Core Entities

// Permission represents a single grantable capability.
type Permission struct {
	ID          string    `json:"id"` // UUIDv7
	Name        string    `json:"name"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Role represents a named bundle of permissions assignable to identities.
type Role struct {
	ID          string    `json:"id"` // UUIDv7
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Permissions holds the attached permissions, populated on detail reads.
	Permissions []Permission `json:"permissions,omitempty"`
}

// # Well-Known Permission Names

// Names gating the administrative surface of this package itself.
const (
	PermPermissionsRead  = "permissions:read"
	PermPermissionsWrite = "permissions:write"
	PermRolesRead        = "roles:read"
	PermRolesWrite       = "roles:write"
)
