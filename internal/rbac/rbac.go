package rbac

import (
	"time"

	rbacDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/rbac"
)

// Permission names checked by the HTTP layer.
const (
	PermUsersCreate      = "users.create"
	PermUsersDelete      = "users.delete"
	PermRolesManage      = "roles.manage"
	PermRolesAssign      = "roles.assign"
	PermEventsCreate     = "events.create"
	PermEventsUpdate     = "events.update"
	PermEventsComplete   = "events.complete"
	PermEventsPostpone   = "events.postpone"
	PermEventsReject     = "events.reject"
	PermEventsFollowUp   = "events.follow_up"
	PermEventsAttend     = "events.attend"
	PermEventTypesManage = "event_types.manage"
	PermSettingsManage   = "settings.manage"
)

// AllPermissions lists every permission the application checks.
func AllPermissions() []string {
	return []string{
		PermUsersCreate, PermUsersDelete,
		PermRolesManage, PermRolesAssign,
		PermEventsCreate, PermEventsUpdate,
		PermEventsComplete, PermEventsPostpone, PermEventsReject, PermEventsFollowUp,
		PermEventsAttend,
		PermEventTypesManage,
		PermSettingsManage,
	}
}

type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromRoleDataModel(r *rbacDatamodel.Role) *Role {
	return &Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromPermissionDataModel(p *rbacDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
