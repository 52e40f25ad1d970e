package rbac

import (
	"errors"
	"strings"

	"github.com/frahmantamala/event-scheduler/internal/core/datamodel"
	userDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/user"
)

type Role struct {
	datamodel.Base
	Name        string `gorm:"column:name;size:100;uniqueIndex;not null"`
	Description string `gorm:"column:description;size:500"`
}

func (Role) TableName() string {
	return "roles"
}

func (r Role) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("role name is required")
	}
	return nil
}

type Permission struct {
	datamodel.Base
	Name        string `gorm:"column:name;size:100;uniqueIndex;not null"`
	Description string `gorm:"column:description;size:500"`
}

func (Permission) TableName() string {
	return "permissions"
}

func (p Permission) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("permission name is required")
	}
	return nil
}

// UserRole grants a role to a user; (user_id, role_id) is unique.
type UserRole struct {
	datamodel.Base
	UserID int64               `gorm:"column:user_id;not null;uniqueIndex:ux_user_roles_user_role"`
	RoleID int64               `gorm:"column:role_id;not null;uniqueIndex:ux_user_roles_user_role;index"`
	User   *userDatamodel.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Role   *Role               `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// RolePermission grants a permission to a role; (role_id, permission_id) is unique.
type RolePermission struct {
	datamodel.Base
	RoleID       int64       `gorm:"column:role_id;not null;uniqueIndex:ux_role_permissions_role_permission"`
	PermissionID int64       `gorm:"column:permission_id;not null;uniqueIndex:ux_role_permissions_role_permission;index"`
	Role         *Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	Permission   *Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}
