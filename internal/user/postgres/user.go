package postgres

import (
	"context"
	"fmt"

	eventDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/event"
	rbacDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/event-scheduler/internal/core/datamodel/user"
	"github.com/frahmantamala/event-scheduler/internal/core/repository"
	"github.com/frahmantamala/event-scheduler/internal/user"
	"gorm.io/gorm"
)

// UserDeleteRules is the referential policy applied when users are removed.
// Events a user created survive with a null creator.
func UserDeleteRules() []repository.DeleteRule {
	return []repository.DeleteRule{
		{Model: &eventDatamodel.UserEvent{}, ForeignKey: "user_id", Action: repository.Cascade},
		{Model: &rbacDatamodel.UserRole{}, ForeignKey: "user_id", Action: repository.Cascade},
		{Model: &eventDatamodel.EventSettings{}, ForeignKey: "user_id", Action: repository.Cascade},
		{Model: &eventDatamodel.Event{}, ForeignKey: "creator_id", Action: repository.SetNull},
	}
}

type UserRepository struct {
	users repository.Store[userDatamodel.User]
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{
		users: repository.New[userDatamodel.User](db,
			repository.WithDeleteRules[userDatamodel.User](UserDeleteRules()...)),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) (*userDatamodel.User, error) {
	return r.users.Add(ctx, u)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.users.GetByID(ctx, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	found, err := r.users.Find(ctx, repository.Eq("Email", email))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("user %q: %w", email, repository.ErrNotFound)
	}
	return found[0], nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	u := &userDatamodel.User{}
	u.ID = id
	return r.users.Delete(ctx, u)
}

func (r *UserRepository) DeleteAll(ctx context.Context) error {
	return r.users.DeleteAll(ctx)
}
