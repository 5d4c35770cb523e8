// Package commands implements the svcref command surface.
package commands

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/svcref/svcref/internal/catalog"
	"github.com/svcref/svcref/internal/cli/config"
	"github.com/svcref/svcref/internal/cli/output"
	"github.com/svcref/svcref/internal/cli/ui"
	"github.com/svcref/svcref/internal/resolver"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global flags shared by every subcommand.
var (
	formatFlag  string
	countFlag   bool
	noColorFlag bool
	noInputFlag bool
	verboseFlag bool
	baseURLFlag string
)

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "svcref",
		Short: "Explore the AWS service reference catalog",
		Long: `svcref queries the public AWS service reference catalog: the services it
lists, the actions each service supports, the resources those actions touch,
and the condition keys available at every level.

The catalog is fetched lazily and memoized for the lifetime of the process.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColorFlag {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "", "Output format: table, text, json, or yaml")
	rootCmd.PersistentFlags().BoolVar(&countFlag, "count", false, "Show only the count instead of the full list")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noInputFlag, "no-input", false, "Never prompt interactively")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Override the catalog index URL")

	rootCmd.AddCommand(newServicesCommand())
	rootCmd.AddCommand(newActionsCommand())
	rootCmd.AddCommand(newResourcesCommand())
	rootCmd.AddCommand(newActionCommand())
	rootCmd.AddCommand(newResourceCommand())
	rootCmd.AddCommand(newKeysCommand())
	rootCmd.AddCommand(newInfoCommand())
	rootCmd.AddCommand(newMonitorCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// newVersionCommand creates the version command.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), noColorFlag)
			kv.AddRow("svcref version", Version)
			kv.AddRow("Git commit", GitCommit)
			kv.AddRow("Build date", BuildDate)
			kv.AddRow("Go version", runtime.Version())
			kv.Render()
		},
	}
}

// app wires the configured Store and Resolver for one command invocation.
type app struct {
	cfg      *config.Config
	store    *catalog.Store
	resolver *resolver.Resolver
	fetcher  *catalog.HTTPFetcher
	logger   *zap.Logger
}

// newApp loads configuration, applies flag overrides, and builds the
// catalog client stack.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if baseURLFlag != "" {
		cfg.Catalog.BaseURL = baseURLFlag
	}
	if noColorFlag {
		cfg.Output.NoColor = true
	}
	if formatFlag != "" {
		if _, err := output.ParseFormat(formatFlag); err != nil {
			return nil, err
		}
		cfg.Output.Format = formatFlag
	}

	logger := zap.NewNop()
	if verboseFlag {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
	}

	fetcher := catalog.NewHTTPFetcher(catalog.HTTPFetcherConfig{
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.Timeout(),
		Retries: cfg.Catalog.Retries,
		Backoff: catalog.DefaultHTTPFetcherConfig().Backoff,
	}, logger)

	store, err := catalog.NewStore(fetcher, catalog.StoreConfig{
		DocumentCacheSize: cfg.Catalog.CacheSize,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		store:    store,
		resolver: resolver.New(store),
		fetcher:  fetcher,
		logger:   logger,
	}, nil
}

// formatter builds the output formatter for a command.
func (a *app) formatter(cmd *cobra.Command) *output.Formatter {
	format, err := output.ParseFormat(a.cfg.Output.Format)
	if err != nil {
		format = output.FormatTable
	}
	return output.NewFormatter(cmd.OutOrStdout(), format, a.cfg.Output.NoColor)
}

// resolveService validates a service name against the index. On a miss it
// prints suggestions; when running interactively it offers to pick one, and
// the picked name is returned in place of the invalid input.
func (a *app) resolveService(ctx context.Context, cmd *cobra.Command, name string) (string, error) {
	if a.resolver.IsValidService(ctx, name) {
		return name, nil
	}

	suggestions := a.resolver.SuggestSimilar(ctx, name, resolver.DefaultSuggestionLimit)

	if len(suggestions) > 0 && interactive() {
		var picked string
		prompt := &survey.Select{
			Message: fmt.Sprintf("Unknown service '%s'. Did you mean:", name),
			Options: suggestions,
		}
		if err := survey.AskOne(prompt, &picked); err == nil && picked != "" {
			return picked, nil
		}
	}

	ui.WriteNotFound(cmd.ErrOrStderr(), ui.NotFoundOptions{
		Kind:        "service",
		Name:        name,
		Suggestions: suggestions,
		HelpCommand: "svcref services",
		NoColor:     a.cfg.Output.NoColor,
	})
	return "", fmt.Errorf("invalid service name: %s", name)
}

// interactive reports whether prompting the user makes sense.
func interactive() bool {
	if noInputFlag {
		return false
	}
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// notFound prints a "valid service, nothing to show" notice. This is the
// empty-result path, distinct from the invalid-name path handled by
// resolveService.
func notFound(cmd *cobra.Command, message string) {
	fmt.Fprintln(cmd.ErrOrStderr(), message)
}
