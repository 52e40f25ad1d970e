package postgres

import (
	"context"
	"fmt"

	rbacDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/rbac"
	"github.com/frahmantamala/event-scheduler/internal/core/repository"
	"github.com/frahmantamala/event-scheduler/internal/rbac"
	"gorm.io/gorm"
)

type RBACRepository struct {
	db              *gorm.DB
	roles           repository.Store[rbacDatamodel.Role]
	permissions     repository.Store[rbacDatamodel.Permission]
	userRoles       repository.Store[rbacDatamodel.UserRole]
	rolePermissions repository.Store[rbacDatamodel.RolePermission]
}

func NewRBACRepository(db *gorm.DB) rbac.RepositoryAPI {
	return &RBACRepository{
		db: db,
		roles: repository.New[rbacDatamodel.Role](db,
			repository.WithDeleteRules[rbacDatamodel.Role](
				repository.DeleteRule{Model: &rbacDatamodel.UserRole{}, ForeignKey: "role_id", Action: repository.Cascade},
				repository.DeleteRule{Model: &rbacDatamodel.RolePermission{}, ForeignKey: "role_id", Action: repository.Cascade},
			)),
		permissions: repository.New[rbacDatamodel.Permission](db,
			repository.WithDeleteRules[rbacDatamodel.Permission](
				repository.DeleteRule{Model: &rbacDatamodel.RolePermission{}, ForeignKey: "permission_id", Action: repository.Cascade},
			)),
		userRoles:       repository.New[rbacDatamodel.UserRole](db),
		rolePermissions: repository.New[rbacDatamodel.RolePermission](db),
	}
}

func (r *RBACRepository) CreateRole(ctx context.Context, role *rbacDatamodel.Role) (*rbacDatamodel.Role, error) {
	return r.roles.Add(ctx, role)
}

func (r *RBACRepository) GetRole(ctx context.Context, id int64) (*rbacDatamodel.Role, error) {
	return r.roles.GetByID(ctx, id)
}

func (r *RBACRepository) FindRoleByName(ctx context.Context, name string) (*rbacDatamodel.Role, error) {
	return first(r.roles.Find(ctx, repository.Eq("Name", name)))
}

func (r *RBACRepository) ListRoles(ctx context.Context, pageNumber, pageSize int) (*repository.Page[rbacDatamodel.Role], error) {
	return r.roles.GetPaged(ctx, pageNumber, pageSize)
}

func (r *RBACRepository) DeleteRole(ctx context.Context, id int64) error {
	role := &rbacDatamodel.Role{}
	role.ID = id
	return r.roles.Delete(ctx, role)
}

func (r *RBACRepository) CreatePermission(ctx context.Context, permission *rbacDatamodel.Permission) (*rbacDatamodel.Permission, error) {
	return r.permissions.Add(ctx, permission)
}

func (r *RBACRepository) GetPermission(ctx context.Context, id int64) (*rbacDatamodel.Permission, error) {
	return r.permissions.GetByID(ctx, id)
}

func (r *RBACRepository) FindPermissionByName(ctx context.Context, name string) (*rbacDatamodel.Permission, error) {
	return first(r.permissions.Find(ctx, repository.Eq("Name", name)))
}

func (r *RBACRepository) ListPermissions(ctx context.Context) ([]*rbacDatamodel.Permission, error) {
	return r.permissions.GetAll(ctx)
}

func (r *RBACRepository) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.userRoles.Add(ctx, &rbacDatamodel.UserRole{UserID: userID, RoleID: roleID})
	return err
}

func (r *RBACRepository) RevokeRole(ctx context.Context, userID, roleID int64) error {
	links, err := r.userRoles.Find(ctx, repository.Eq("UserID", userID).And(repository.Eq("RoleID", roleID)))
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return fmt.Errorf("role %d for user %d: %w", roleID, userID, repository.ErrNotFound)
	}
	return r.userRoles.DeleteRange(ctx, links)
}

func (r *RBACRepository) GrantPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.rolePermissions.Add(ctx, &rbacDatamodel.RolePermission{RoleID: roleID, PermissionID: permissionID})
	return err
}

func (r *RBACRepository) RevokePermission(ctx context.Context, roleID, permissionID int64) error {
	links, err := r.rolePermissions.Find(ctx, repository.Eq("RoleID", roleID).And(repository.Eq("PermissionID", permissionID)))
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return fmt.Errorf("permission %d for role %d: %w", permissionID, roleID, repository.ErrNotFound)
	}
	return r.rolePermissions.DeleteRange(ctx, links)
}

// UserPermissionNames lists the distinct permission names a user holds through its roles.
func (r *RBACRepository) UserPermissionNames(ctx context.Context, userID int64) ([]string, error) {
	names := []string{}
	err := r.db.WithContext(ctx).
		Table("permissions AS p").
		Joins("JOIN role_permissions rp ON rp.permission_id = p.id").
		Joins("JOIN user_roles ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ?", userID).
		Distinct().
		Order("p.name").
		Pluck("p.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list permissions for user %d: %w", userID, err)
	}
	return names, nil
}

func first[T any](items []*T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%T: %w", *new(T), repository.ErrNotFound)
	}
	return items[0], nil
}
