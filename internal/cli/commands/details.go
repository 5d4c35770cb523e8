package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svcref/svcref/internal/catalog"
)

// catalogNotFound reports whether err is a lookup miss rather than a
// transport failure.
func catalogNotFound(err error) bool {
	return catalog.IsNotFound(err)
}

// newActionCommand creates the 'action' command.
func newActionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "action <service> <action>",
		Short: "Show the full detail of one action",
		Long: `Show one action joined with the resources it touches: each resource's ARN
formats and condition keys, plus the condition keys scoped to the action
itself.`,
		Example: `  # Full join for s3:GetObject
  svcref action s3 GetObject

  # As JSON for tooling
  svcref action s3 GetObject --format json`,
		Args: cobra.ExactArgs(2),
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

			detail, err := app.store.ActionDetail(ctx, service, args[1])
			if err != nil {
				if catalogNotFound(err) {
					notFound(cmd, fmt.Sprintf("Action '%s' not found for service '%s'", args[1], service))
					return nil
				}
				return err
			}

			return app.formatter(cmd).ActionDetail(service, detail)
		},
	}
}

// newResourceCommand creates the 'resource' command.
func newResourceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resource <service> <resource>",
		Short: "Show the full detail of one resource",
		Example: `  # ARN formats and condition keys of the s3 object resource
  svcref resource s3 object`,
		Args: cobra.ExactArgs(2),
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

			detail, err := app.store.ResourceDetail(ctx, service, args[1])
			if err != nil {
				if catalogNotFound(err) {
					notFound(cmd, fmt.Sprintf("Resource '%s' not found for service '%s'", args[1], service))
					return nil
				}
				return err
			}

			return app.formatter(cmd).ResourceDetail(service, detail)
		},
	}
}

// newInfoCommand creates the 'info' command.
func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <service>",
		Short: "Show an at-a-glance summary of one service",
		Example: `  # Counts and samples for s3
  svcref info s3`,
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

			summary, err := app.store.Summary(ctx, service)
			if err != nil {
				return err
			}
			return app.formatter(cmd).Summary(summary)
		},
	}
}
