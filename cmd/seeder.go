package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/event-scheduler/internal/core/repository"
	"github.com/frahmantamala/event-scheduler/internal/event"
	eventPostgres "github.com/frahmantamala/event-scheduler/internal/event/postgres"
	"github.com/frahmantamala/event-scheduler/internal/rbac"
	"github.com/frahmantamala/event-scheduler/internal/user"
	userPostgres "github.com/frahmantamala/event-scheduler/internal/user/postgres"
	"github.com/spf13/cobra"
)

var seedClear bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with roles, permissions, users and event types for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		app, err := newApplication(cfg)
		if err != nil {
			log.Fatalf("failed to init app: %v", err)
		}
		defer app.Close()

		ctx := context.Background()
		if seedClear {
			clearData(ctx, app)
		}

		for _, name := range rbac.AllPermissions() {
			if _, err := app.RBAC.EnsurePermission(ctx, name, ""); err != nil {
				log.Fatalf("failed to ensure permission %s: %v", name, err)
			}
		}

		roles := []struct {
			Name        string
			Desc        string
			Permissions []string
		}{
			{"admin", "full administrator", rbac.AllPermissions()},
			{"planner", "plans and runs events", []string{
				rbac.PermEventsCreate, rbac.PermEventsUpdate,
				rbac.PermEventsComplete, rbac.PermEventsPostpone, rbac.PermEventsFollowUp,
				rbac.PermEventsAttend, rbac.PermSettingsManage,
			}},
		}

		users := []struct {
			Email string
			Name  string
			Role  string
		}{
			{"padil@mail.com", "Padil Admin", "admin"},
			{"fadhil@mail.com", "Fadhil", "planner"},
		}

		userRepo := userPostgres.NewUserRepository(app.DB)
		for _, r := range roles {
			role, err := app.RBAC.EnsureRole(ctx, r.Name, r.Desc)
			if err != nil {
				log.Fatalf("failed to ensure role %s: %v", r.Name, err)
			}
			for _, name := range r.Permissions {
				perm, err := app.RBAC.EnsurePermission(ctx, name, "")
				if err != nil {
					log.Fatalf("failed to ensure permission %s: %v", name, err)
				}
				err = app.RBAC.GrantPermission(ctx, role.ID, rbac.GrantPermissionDTO{PermissionID: perm.ID})
				if _, dup := repository.IsConstraintViolation(err); err != nil && !dup {
					log.Fatalf("failed to grant %s to %s: %v", name, r.Name, err)
				}
			}

			for _, u := range users {
				if u.Role != r.Name {
					continue
				}
				userID := seedUser(ctx, app, userRepo, u.Email, u.Name)
				err := app.RBAC.AssignRole(ctx, userID, rbac.AssignRoleDTO{RoleID: role.ID})
				if _, dup := repository.IsConstraintViolation(err); err != nil && !dup {
					log.Fatalf("failed to assign %s to %s: %v", r.Name, u.Email, err)
				}
				fmt.Printf("Granted role %s to %s\n", r.Name, u.Email)
			}
		}

		existing, err := app.Events.ListEventTypes(ctx)
		if err != nil {
			log.Fatalf("failed to list event types: %v", err)
		}
		known := map[string]bool{}
		for _, t := range existing.EventTypes {
			known[t.Name] = true
		}

		eventTypes := []event.CreateEventTypeDTO{
			{Name: "meeting", Description: "internal meetings and standups"},
			{Name: "workshop", Description: "hands-on sessions"},
			{Name: "conference", Description: "multi-track conferences"},
			{Name: "social", Description: "team outings and celebrations"},
		}
		for _, t := range eventTypes {
			if known[t.Name] {
				continue
			}
			if _, err := app.Events.CreateEventType(ctx, t); err != nil {
				log.Fatalf("failed to insert event type %s: %v", t.Name, err)
			}
			fmt.Printf("Seeded event type: %s\n", t.Name)
		}

		fmt.Println("Seed completed successfully")
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedClear, "clear", false, "delete events, event types and users before seeding")
}

// seedUser registers the user unless the email is taken and returns its id
// either way. Every seeded account shares the password "password".
func seedUser(ctx context.Context, app *application, repo user.RepositoryAPI, email, name string) int64 {
	created, err := app.Users.Register(ctx, user.CreateUserDTO{Email: email, Name: name, Password: "password"})
	if err == nil {
		fmt.Println("Seeded user:", email)
		return created.ID
	}
	if _, dup := repository.IsConstraintViolation(err); !dup {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}

	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("failed to lookup user %s: %v", email, err)
	}
	fmt.Println("user already exists; will ensure roles:", email)
	return existing.ID
}

func clearData(ctx context.Context, app *application) {
	repos := eventPostgres.NewRepositories(app.DB)
	if err := repos.Events.DeleteAll(ctx); err != nil {
		log.Fatalf("failed to clear events: %v", err)
	}
	if err := repos.Types.DeleteAll(ctx); err != nil {
		log.Fatalf("failed to clear event types: %v", err)
	}
	if err := userPostgres.NewUserRepository(app.DB).DeleteAll(ctx); err != nil {
		log.Fatalf("failed to clear users: %v", err)
	}
	fmt.Println("Cleared events, event types and users")
}
