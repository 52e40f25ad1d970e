package rbac

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	errors "github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/core/common/validation"
	rbacDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/rbac"
	"github.com/frahmantamala/event-scheduler/internal/core/repository"
)

type RepositoryAPI interface {
	CreateRole(ctx context.Context, role *rbacDatamodel.Role) (*rbacDatamodel.Role, error)
	GetRole(ctx context.Context, id int64) (*rbacDatamodel.Role, error)
	FindRoleByName(ctx context.Context, name string) (*rbacDatamodel.Role, error)
	ListRoles(ctx context.Context, pageNumber, pageSize int) (*repository.Page[rbacDatamodel.Role], error)
	DeleteRole(ctx context.Context, id int64) error

	CreatePermission(ctx context.Context, permission *rbacDatamodel.Permission) (*rbacDatamodel.Permission, error)
	GetPermission(ctx context.Context, id int64) (*rbacDatamodel.Permission, error)
	FindPermissionByName(ctx context.Context, name string) (*rbacDatamodel.Permission, error)
	ListPermissions(ctx context.Context) ([]*rbacDatamodel.Permission, error)

	AssignRole(ctx context.Context, userID, roleID int64) error
	RevokeRole(ctx context.Context, userID, roleID int64) error
	GrantPermission(ctx context.Context, roleID, permissionID int64) error
	RevokePermission(ctx context.Context, roleID, permissionID int64) error
	UserPermissionNames(ctx context.Context, userID int64) ([]string, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) CreateRole(ctx context.Context, dto CreateRoleDTO) (*Role, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	created, err := s.repo.CreateRole(ctx, &rbacDatamodel.Role{
		Name:        strings.TrimSpace(dto.Name),
		Description: dto.Description,
	})
	if err != nil {
		s.logger.Error("failed to create role", "name", dto.Name, "error", err)
		return nil, err
	}

	s.logger.Info("role created", "role_id", created.ID, "name", created.Name)
	return FromRoleDataModel(created), nil
}

func (s *Service) ListRoles(ctx context.Context, pageNumber, pageSize int) (*RolesResponse, error) {
	page, err := s.repo.ListRoles(ctx, pageNumber, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*Role, len(page.Items))
	for i, r := range page.Items {
		items[i] = FromRoleDataModel(r)
	}
	return &RolesResponse{
		Items:      items,
		TotalCount: page.TotalCount,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}, nil
}

func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		s.logger.Error("failed to delete role", "role_id", id, "error", err)
		return err
	}
	return nil
}

func (s *Service) CreatePermission(ctx context.Context, dto CreatePermissionDTO) (*Permission, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	created, err := s.repo.CreatePermission(ctx, &rbacDatamodel.Permission{
		Name:        strings.TrimSpace(dto.Name),
		Description: dto.Description,
	})
	if err != nil {
		s.logger.Error("failed to create permission", "name", dto.Name, "error", err)
		return nil, err
	}

	s.logger.Info("permission created", "permission_id", created.ID, "name", created.Name)
	return FromPermissionDataModel(created), nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]*Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Permission, len(perms))
	for i, p := range perms {
		out[i] = FromPermissionDataModel(p)
	}
	return out, nil
}

// EnsureRole returns the named role, creating it when absent. A concurrent
// creator winning the race is not an error.
func (s *Service) EnsureRole(ctx context.Context, name, description string) (*Role, error) {
	existing, err := s.repo.FindRoleByName(ctx, name)
	if err == nil {
		return FromRoleDataModel(existing), nil
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	created, err := s.repo.CreateRole(ctx, &rbacDatamodel.Role{Name: name, Description: description})
	if _, conflict := repository.IsConstraintViolation(err); conflict {
		existing, err = s.repo.FindRoleByName(ctx, name)
		if err != nil {
			return nil, err
		}
		return FromRoleDataModel(existing), nil
	}
	if err != nil {
		return nil, err
	}
	return FromRoleDataModel(created), nil
}

// EnsurePermission mirrors EnsureRole for permissions.
func (s *Service) EnsurePermission(ctx context.Context, name, description string) (*Permission, error) {
	existing, err := s.repo.FindPermissionByName(ctx, name)
	if err == nil {
		return FromPermissionDataModel(existing), nil
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	created, err := s.repo.CreatePermission(ctx, &rbacDatamodel.Permission{Name: name, Description: description})
	if _, conflict := repository.IsConstraintViolation(err); conflict {
		existing, err = s.repo.FindPermissionByName(ctx, name)
		if err != nil {
			return nil, err
		}
		return FromPermissionDataModel(existing), nil
	}
	if err != nil {
		return nil, err
	}
	return FromPermissionDataModel(created), nil
}

// AssignRole grants roleID to userID. Assigning a role twice surfaces the
// repository's ConstraintViolation.
func (s *Service) AssignRole(ctx context.Context, userID int64, dto AssignRoleDTO) error {
	if appErr := validation.Struct(dto); appErr != nil {
		return appErr
	}
	if userID < 1 {
		return errors.NewValidationFieldError("user_id", "user_id must be positive", errors.ErrCodeInvalidArgument)
	}

	if err := s.repo.AssignRole(ctx, userID, dto.RoleID); err != nil {
		s.logger.Warn("failed to assign role", "user_id", userID, "role_id", dto.RoleID, "error", err)
		return err
	}
	s.logger.Info("role assigned", "user_id", userID, "role_id", dto.RoleID)
	return nil
}

func (s *Service) RevokeRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.RevokeRole(ctx, userID, roleID); err != nil {
		s.logger.Warn("failed to revoke role", "user_id", userID, "role_id", roleID, "error", err)
		return err
	}
	s.logger.Info("role revoked", "user_id", userID, "role_id", roleID)
	return nil
}

func (s *Service) GrantPermission(ctx context.Context, roleID int64, dto GrantPermissionDTO) error {
	if appErr := validation.Struct(dto); appErr != nil {
		return appErr
	}

	if err := s.repo.GrantPermission(ctx, roleID, dto.PermissionID); err != nil {
		s.logger.Warn("failed to grant permission", "role_id", roleID, "permission_id", dto.PermissionID, "error", err)
		return err
	}
	s.logger.Info("permission granted", "role_id", roleID, "permission_id", dto.PermissionID)
	return nil
}

func (s *Service) RevokePermission(ctx context.Context, roleID, permissionID int64) error {
	if err := s.repo.RevokePermission(ctx, roleID, permissionID); err != nil {
		s.logger.Warn("failed to revoke permission", "role_id", roleID, "permission_id", permissionID, "error", err)
		return err
	}
	s.logger.Info("permission revoked", "role_id", roleID, "permission_id", permissionID)
	return nil
}

func (s *Service) UserPermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.UserPermissionNames(ctx, userID)
}
