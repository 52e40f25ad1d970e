package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/frahmantamala/event-scheduler/internal"
	"github.com/frahmantamala/event-scheduler/internal/auth"
	"github.com/frahmantamala/event-scheduler/internal/event"
	"github.com/frahmantamala/event-scheduler/internal/rbac"
	"github.com/frahmantamala/event-scheduler/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	lifecycleIDs   []int64
	lifecycleActor int64
)

var lifecycleCmd = &cobra.Command{
	Use:   "lifecycle",
	Short: "Run bulk lifecycle operations on events",
	Long: `Apply complete, postpone, reject or follow-up to a batch of events on behalf of a user.
The acting user must hold the matching permission. The per-item result is printed as JSON.`,
}

type bulkOperation func(app *application) func(ctx context.Context, actorID int64, ids []int64) *event.BulkResult

func newLifecycleSubcommand(use, permission string, op bulkOperation) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Bulk %s events (requires %s)", use, permission),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(lifecycleIDs) == 0 {
				return fmt.Errorf("--ids is required")
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			app, err := newApplication(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = logger.WithLogger(ctx, app.Logger.With("command", "lifecycle "+use, "actor_id", lifecycleActor))

			identity := internal.UserIdentity(lifecycleActor)
			if decision := app.Gate.Decide(ctx, identity, auth.Require(permission)); decision != auth.Granted {
				return fmt.Errorf("user %d is not allowed to %s events: %s", lifecycleActor, use, decision)
			}

			result := op(app)(ctx, lifecycleActor, lifecycleIDs)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

func init() {
	lifecycleCmd.PersistentFlags().Int64SliceVar(&lifecycleIDs, "ids", nil, "comma separated event ids")
	lifecycleCmd.PersistentFlags().Int64Var(&lifecycleActor, "actor", 0, "id of the acting user")
	_ = lifecycleCmd.MarkPersistentFlagRequired("actor")

	lifecycleCmd.AddCommand(
		newLifecycleSubcommand("complete", rbac.PermEventsComplete, func(app *application) func(context.Context, int64, []int64) *event.BulkResult {
			return app.Lifecycle.BulkComplete
		}),
		newLifecycleSubcommand("postpone", rbac.PermEventsPostpone, func(app *application) func(context.Context, int64, []int64) *event.BulkResult {
			return app.Lifecycle.BulkPostpone
		}),
		newLifecycleSubcommand("reject", rbac.PermEventsReject, func(app *application) func(context.Context, int64, []int64) *event.BulkResult {
			return app.Lifecycle.BulkReject
		}),
		newLifecycleSubcommand("follow-up", rbac.PermEventsFollowUp, func(app *application) func(context.Context, int64, []int64) *event.BulkResult {
			return app.Lifecycle.BulkFollowUp
		}),
	)
}
