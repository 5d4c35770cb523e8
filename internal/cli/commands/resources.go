package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newResourcesCommand creates the 'resources' command.
func newResourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resources <service> [action]",
		Short: "List a service's resources, or the resources one action touches",
		Long: `List every resource a service declares, with ARN formats and condition keys.

With an action argument, list only the resources that action touches. An
action with no explicit resource list applies to the wildcard resource "*".`,
		Example: `  # All unique s3 resources
  svcref resources s3

  # Resources touched by one action
  svcref resources s3 GetObject`,
		Args: cobra.RangeArgs(1, 2),
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

			if len(args) == 2 {
				return runActionResources(cmd, app, service, args[1])
			}

			resources, err := app.store.UniqueResources(ctx, service)
			if err != nil {
				return err
			}
			if len(resources) == 0 {
				notFound(cmd, fmt.Sprintf("No resources found for service '%s'", service))
				return nil
			}

			if countFlag {
				return app.formatter(cmd).Count(fmt.Sprintf("Total unique resources for %s", service), len(resources))
			}
			return app.formatter(cmd).ResourceDetails(service, resources)
		},
	}
}

// runActionResources renders the detailed resource list for one action.
func runActionResources(cmd *cobra.Command, app *app, service, action string) error {
	ctx := cmd.Context()

	detail, err := app.store.ActionDetail(ctx, service, action)
	if err != nil {
		if catalogNotFound(err) {
			notFound(cmd, fmt.Sprintf("No resources found for action '%s' in service '%s'", action, service))
			return nil
		}
		return err
	}

	scope := fmt.Sprintf("%s:%s", service, action)
	if countFlag {
		return app.formatter(cmd).Count(fmt.Sprintf("Total resources for %s", scope), len(detail.Resources))
	}
	return app.formatter(cmd).ResourceDetails(scope, detail.Resources)
}
