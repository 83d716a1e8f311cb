// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package permission

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/annotide/annotide/internal/platform/middleware"
	requestutil "github.com/annotide/annotide/internal/platform/request"
	"github.com/annotide/annotide/internal/platform/respond"
	"github.com/annotide/annotide/pkg/pagination"
)

// # Handler Implementation

// Handler implements the administrative HTTP layer for permissions and roles.
type Handler struct {
	service *Service
	gate    *middleware.AccessGate
}

// NewHandler constructs a new permission [Handler].
func NewHandler(service *Service, gate *middleware.AccessGate) *Handler {
	return &Handler{
		service: service,
		gate:    gate,
	}
}

// PermissionRoutes returns a [chi.Router] for /permissions. Every endpoint is
// gated: reads require permissions:read, mutations permissions:write.
func (handler *Handler) PermissionRoutes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(reads chi.Router) {
		reads.Use(handler.gate.Require(PermPermissionsRead))
		reads.Get("/", handler.listPermissions)
		reads.Get("/{id}", handler.getPermission)
	})

	router.Group(func(writes chi.Router) {
		writes.Use(handler.gate.Require(PermPermissionsWrite))
		writes.Post("/", handler.createPermission)
		writes.Put("/{id}", handler.updatePermission)
		writes.Delete("/{id}", handler.deletePermission)
	})

	return router
}

// RoleRoutes returns a [chi.Router] for /roles, gated the same way under
// roles:read / roles:write.
func (handler *Handler) RoleRoutes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(reads chi.Router) {
		reads.Use(handler.gate.Require(PermRolesRead))
		reads.Get("/", handler.listRoles)
		reads.Get("/{id}", handler.getRole)
	})

	router.Group(func(writes chi.Router) {
		writes.Use(handler.gate.Require(PermRolesWrite))
		writes.Post("/", handler.createRole)
		writes.Put("/{id}", handler.updateRole)
		writes.Delete("/{id}", handler.deleteRole)
	})

	return router
}

// # Permission Endpoints

/*
GET /api/v1/permissions.

Description: Retrieves a paginated list of permissions ordered by name.

Request:
  - limit: int
  - page: int

Response:
  - 200: []Permission: Paginated list
*/
func (handler *Handler) listPermissions(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	permissions, total, err := handler.service.ListPermissions(request.Context(), paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, permissions, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/permissions/{id}.

Response:
  - 200: Permission: Success
  - 404: ErrNotFound: Permission not found
*/
func (handler *Handler) getPermission(writer http.ResponseWriter, request *http.Request) {
	permission, err := handler.service.GetPermission(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, permission)
}

/*
POST /api/v1/permissions.

Request:
  - name: string ("<resource>:<action>", unique)
  - resource: string
  - action: string
  - description: string (optional)

Response:
  - 201: Permission: Created
  - 400: ValidationError: Malformed name
  - 409: Conflict: Duplicate name
*/
func (handler *Handler) createPermission(writer http.ResponseWriter, request *http.Request) {
	var permission Permission
	if err := requestutil.DecodeJSON(request, &permission); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreatePermission(request.Context(), &permission); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, permission)
}

/*
PUT /api/v1/permissions/{id}.

Description: Partial update; omitted fields keep their stored values.

Response:
  - 200: Permission: Updated entity
  - 404: ErrNotFound: Permission not found
*/
func (handler *Handler) updatePermission(writer http.ResponseWriter, request *http.Request) {
	var input UpdatePermissionInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	permission, err := handler.service.UpdatePermission(request.Context(), requestutil.Param(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, permission)
}

/*
DELETE /api/v1/permissions/{id}.

Response:
  - 204: Deleted
  - 404: ErrNotFound: Permission not found
*/
func (handler *Handler) deletePermission(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeletePermission(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Role Endpoints

/*
GET /api/v1/roles.

Response:
  - 200: []Role: Paginated list (permissions not hydrated)
*/
func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	roles, total, err := handler.service.ListRoles(request.Context(), paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, roles, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/roles/{id}.

Response:
  - 200: Role: Success, attached permissions included
  - 404: ErrNotFound: Role not found
*/
func (handler *Handler) getRole(writer http.ResponseWriter, request *http.Request) {
	role, err := handler.service.GetRole(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

// createRoleRequest is the POST /roles body.
type createRoleRequest struct {
	Name          string   `json:"name"`
	Description   *string  `json:"description"`
	PermissionIDs []string `json:"permission_ids"`
}

/*
POST /api/v1/roles.

Request:
  - name: string (unique)
  - description: string (optional)
  - permission_ids: []string (attached on create)

Response:
  - 201: Role: Created
  - 404: ErrNotFound: Unknown permission ID
  - 409: Conflict: Duplicate name
*/
func (handler *Handler) createRole(writer http.ResponseWriter, request *http.Request) {
	var body createRoleRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role := &Role{
		Name:        body.Name,
		Description: body.Description,
	}

	if err := handler.service.CreateRole(request.Context(), role, body.PermissionIDs); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, role)
}

/*
PUT /api/v1/roles/{id}.

Description: Partial update. A present permission_ids list replaces the
attached set wholesale; an absent one leaves it untouched.

Response:
  - 200: Role: Updated entity with permissions hydrated
  - 404: ErrNotFound: Role or permission not found
  - 409: Conflict: Duplicate name
*/
func (handler *Handler) updateRole(writer http.ResponseWriter, request *http.Request) {
	var input UpdateRoleInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.service.UpdateRole(request.Context(), requestutil.Param(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

/*
DELETE /api/v1/roles/{id}.

Response:
  - 204: Deleted
  - 404: ErrNotFound: Role not found
*/
func (handler *Handler) deleteRole(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteRole(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
