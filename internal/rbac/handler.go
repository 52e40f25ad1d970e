package rbac

import (
	"context"
	"net/http"

	"github.com/frahmantamala/event-scheduler/internal/transport"
)

type ServiceAPI interface {
	CreateRole(ctx context.Context, dto CreateRoleDTO) (*Role, error)
	ListRoles(ctx context.Context, pageNumber, pageSize int) (*RolesResponse, error)
	DeleteRole(ctx context.Context, id int64) error
	CreatePermission(ctx context.Context, dto CreatePermissionDTO) (*Permission, error)
	ListPermissions(ctx context.Context) ([]*Permission, error)
	AssignRole(ctx context.Context, userID int64, dto AssignRoleDTO) error
	RevokeRole(ctx context.Context, userID, roleID int64) error
	GrantPermission(ctx context.Context, roleID int64, dto GrantPermissionDTO) error
	RevokePermission(ctx context.Context, roleID, permissionID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoleDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	role, err := h.Service.CreateRole(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	pageNumber, err := h.QueryInt(r, "page", 1)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid page")
		return
	}
	pageSize, err := h.QueryInt(r, "page_size", 20)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid page_size")
		return
	}

	roles, err := h.Service.ListRoles(r.Context(), pageNumber, pageSize)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, roles)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteRole(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	perm, err := h.Service.CreatePermission(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, perm)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.ListPermissions(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PermissionsResponse{Permissions: perms})
}

func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}
	var dto GrantPermissionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	if err := h.Service.GrantPermission(r.Context(), roleID, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}
	permissionID, ok := h.URLParamInt64(w, r, "permissionID")
	if !ok {
		return
	}

	if err := h.Service.RevokePermission(r.Context(), roleID, permissionID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}
	var dto AssignRoleDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	if err := h.Service.AssignRole(r.Context(), userID, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.URLParamInt64(w, r, "id")
	if !ok {
		return
	}
	roleID, ok := h.URLParamInt64(w, r, "roleID")
	if !ok {
		return
	}

	if err := h.Service.RevokeRole(r.Context(), userID, roleID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
