package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newActionsCommand creates the 'actions' command.
func newActionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "actions <service>",
		Short: "List the actions a service supports",
		Example: `  # List all s3 actions
  svcref actions s3

  # Count them
  svcref actions s3 --count`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			service, err := app.resolveService(ctx, cmd, args[0])
			if err != nil {
				return err
			}

			actions, err := app.store.Actions(ctx, service)
			if err != nil {
				return err
			}
			if len(actions) == 0 {
				notFound(cmd, fmt.Sprintf("No actions found for service '%s'", service))
				return nil
			}

			if countFlag {
				return app.formatter(cmd).Count(fmt.Sprintf("Total actions for %s", service), len(actions))
			}
			return app.formatter(cmd).Actions(service, actions)
		},
	}
}
