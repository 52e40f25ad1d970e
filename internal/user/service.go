package user

import (
	"context"
	"log/slog"
	"strings"

	errors "github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/user"
)

type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// PermissionLister reports the permission names a user holds through roles.
type PermissionLister interface {
	UserPermissions(ctx context.Context, userID int64) ([]string, error)
}

type Service struct {
	repo        RepositoryAPI
	hasher      PasswordHasher
	permissions PermissionLister
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, hasher PasswordHasher, permissions PermissionLister, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		hasher:      hasher,
		permissions: permissions,
		logger:      logger,
	}
}

// Register creates an active user. Emails are stored lower-cased.
func (s *Service) Register(ctx context.Context, dto CreateUserDTO) (*User, error) {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	dto.Name = strings.TrimSpace(dto.Name)
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	created, err := s.repo.Create(ctx, &userDatamodel.User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		s.logger.Warn("failed to register user", "email", dto.Email, "error", err)
		return nil, err
	}

	s.logger.Info("user registered", "user_id", created.ID)
	return FromDataModel(created), nil
}

// GetByID returns the user together with its effective permission names.
func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	dm, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	u := FromDataModel(dm)
	perms, err := s.permissions.UserPermissions(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load user permissions", "user_id", userID, "error", err)
		return nil, err
	}
	u.Permissions = perms
	return u, nil
}

// Delete removes the user along with its attendance, role assignments and
// settings. Events it created are kept.
func (s *Service) Delete(ctx context.Context, userID int64) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		s.logger.Warn("failed to delete user", "user_id", userID, "error", err)
		return err
	}
	s.logger.Info("user deleted", "user_id", userID)
	return nil
}
