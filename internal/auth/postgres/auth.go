package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/frahmantamala/event-scheduler/internal/auth"
	userDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/user"
	"github.com/frahmantamala/event-scheduler/internal/core/repository"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type Repository struct {
	users repository.Store[userDatamodel.User]
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		users: repository.New[userDatamodel.User](db),
	}
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	found, err := r.users.Find(ctx, repository.Eq("Email", strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("user %q: %w", email, repository.ErrNotFound)
	}
	u := found[0]
	return &auth.Credentials{UserID: u.ID, PasswordHash: u.PasswordHash, IsActive: u.IsActive}, nil
}

func (r *Repository) IsActive(ctx context.Context, userID int64) (bool, error) {
	u, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsActive, nil
}

// hasPermissionQuery walks user -> roles -> permissions in one round trip.
const hasPermissionQuery = `
SELECT EXISTS (
	SELECT 1
	FROM user_roles ur
	JOIN role_permissions rp ON rp.role_id = ur.role_id
	JOIN permissions p ON p.id = rp.permission_id
	WHERE ur.user_id = ? AND p.name = ?
)`

// PermissionResolver answers permission checks with a single composed query.
type PermissionResolver struct {
	db    *sqlx.DB
	query string
}

func NewPermissionResolver(db *sqlx.DB) *PermissionResolver {
	return &PermissionResolver{
		db:    db,
		query: db.Rebind(hasPermissionQuery),
	}
}

func (p *PermissionResolver) HasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	if userID < 1 || permission == "" {
		return false, nil
	}

	var exists bool
	if err := p.db.GetContext(ctx, &exists, p.query, userID, permission); err != nil {
		return false, fmt.Errorf("resolve permission %q for user %d: %w", permission, userID, err)
	}
	return exists, nil
}
