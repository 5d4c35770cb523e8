package commands

import (
	"github.com/spf13/cobra"
)

// newServicesCommand creates the 'services' command.
func newServicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List all services in the catalog",
		Example: `  # List all services
  svcref services

  # Machine-readable index
  svcref services --format json

  # How many services does the catalog hold?
  svcref services --count`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			refs, err := app.store.Services(cmd.Context())
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				notFound(cmd, "No services found")
				return nil
			}

			if countFlag {
				return app.formatter(cmd).Count("Total services", len(refs))
			}
			return app.formatter(cmd).Services(refs)
		},
	}
}
