package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/svcref/svcref/internal/cli/ui"
)

// newKeysCommand creates the 'keys' command.
func newKeysCommand() *cobra.Command {
	var (
		globalOnly  bool
		serviceOnly bool
		flat        bool
	)

	cmd := &cobra.Command{
		Use:   "keys [service]",
		Short: "List condition keys for one service or across the catalog",
		Long: `List condition keys (context keys).

With a service argument, the result is the union of the service-level,
per-action, and per-resource keys of that service, deduplicated and sorted.

With no argument, the result covers the whole catalog, keyed by service.
Aggregating across the catalog fetches every service document once; services
whose documents cannot be fetched are skipped.

Keys prefixed aws: are global (they apply to every service); all other keys
are service-specific.`,
		Example: `  # All context keys for s3
  svcref keys s3

  # Only the aws: global keys for s3
  svcref keys s3 --global

  # Per-service keys across the whole catalog
  svcref keys

  # One deduplicated list across the whole catalog
  svcref keys --flat

  # Every service-specific key in the catalog, flattened
  svcref keys --service-specific --flat`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if globalOnly && serviceOnly {
				return fmt.Errorf("--global and --service-specific are mutually exclusive")
			}

			app, err := newApp()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return runServiceKeys(cmd, app, args[0], globalOnly, serviceOnly)
			}
			return runCatalogKeys(cmd, app, globalOnly, serviceOnly, flat)
		},
	}

	cmd.Flags().BoolVar(&globalOnly, "global", false, "Only aws: global keys")
	cmd.Flags().BoolVar(&serviceOnly, "service-specific", false, "Only service-specific keys")
	cmd.Flags().BoolVar(&flat, "flat", false, "Flatten the catalog-wide result into one deduplicated list")

	return cmd
}

// runServiceKeys renders the context keys of one service.
func runServiceKeys(cmd *cobra.Command, app *app, name string, globalOnly, serviceOnly bool) error {
	ctx := cmd.Context()

	service, err := app.resolveService(ctx, cmd, name)
	if err != nil {
		return err
	}

	var keys []string
	scope := service
	switch {
	case globalOnly:
		keys, err = app.store.GlobalContextKeys(ctx, service)
		scope = service + " (global)"
	case serviceOnly:
		keys, err = app.store.ServiceContextKeys(ctx, service)
		scope = service + " (service-specific)"
	default:
		keys, err = app.store.ContextKeys(ctx, service)
	}
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		notFound(cmd, fmt.Sprintf("No context keys found for service '%s'", service))
		return nil
	}

	if countFlag {
		return app.formatter(cmd).Count(fmt.Sprintf("Total context keys for %s", scope), len(keys))
	}
	return app.formatter(cmd).Keys(scope, keys)
}

// runCatalogKeys renders condition keys aggregated across every service.
// The first aggregation fetches every document in the catalog, so a spinner
// runs on stderr while it computes.
func runCatalogKeys(cmd *cobra.Command, app *app, globalOnly, serviceOnly, flat bool) error {
	ctx := cmd.Context()
	formatter := app.formatter(cmd)

	if interactive() {
		err := ui.WithSpinner(cmd.ErrOrStderr(), "Fetching context keys from the catalog...",
			app.cfg.Output.NoColor, func() error {
				_, err := app.store.CatalogContextKeys(ctx)
				return err
			})
		if err != nil {
			return err
		}
	}

	// Global keys are cross-cutting by definition, so the per-service
	// grouping adds nothing: always render them flattened.
	if globalOnly {
		keys, err := app.store.CatalogGlobalKeys(ctx)
		if err != nil {
			return err
		}
		if countFlag {
			return formatter.Count("Total global context keys across the catalog", len(keys))
		}
		return formatter.Keys("catalog (global)", keys)
	}

	if flat {
		var keys []string
		var err error
		scope := "catalog"
		if serviceOnly {
			keys, err = app.store.FlattenedCatalogServiceKeys(ctx)
			scope = "catalog (service-specific)"
		} else {
			keys, err = app.store.FlattenedCatalogKeys(ctx)
		}
		if err != nil {
			return err
		}
		if countFlag {
			return formatter.Count(fmt.Sprintf("Total unique context keys for %s", scope), len(keys))
		}
		return formatter.Keys(scope, keys)
	}

	var byService map[string][]string
	var err error
	if serviceOnly {
		byService, err = app.store.CatalogServiceKeys(ctx)
	} else {
		byService, err = app.store.CatalogContextKeys(ctx)
	}
	if err != nil {
		return err
	}
	if len(byService) == 0 {
		notFound(cmd, "No context keys found")
		return nil
	}

	if countFlag {
		return formatter.Count("Services with context keys", len(byService))
	}
	return formatter.KeysByService(byService)
}
