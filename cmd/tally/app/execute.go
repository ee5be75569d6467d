package app

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/tally/cmd/tally/cmd/datasets"
	"github.com/agentstation/tally/cmd/tally/cmd/imports"
	"github.com/agentstation/tally/cmd/tally/cmd/rows"
	"github.com/agentstation/tally/cmd/tally/cmd/serve"
)

// Execute runs the tally CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	defer a.cancelTimeout()
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Tabular record reconciliation",
		Version: a.version,
		Long: `Tally keeps flat-file datasets free of near-duplicate records.

Every record, typed in or imported from a spreadsheet, is scored against
the stored records and rejected when it is too similar to one of them.
Accepted records get a stable identifier that is unique in their dataset.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "management", Title: "Management Commands:"})

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default is ./.tally.yaml or $HOME/.tally.yaml)")
	pf.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.Bool("no-color", false, "disable colored output")
	pf.StringP("format", "o", "", "output format: table, json, yaml, wide")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	pf.Duration("timeout", 0, "abort the command after this long, e.g. 30s (0 means no limit; ignored by serve)")

	rootCmd.SetVersionTemplate("tally {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs. An explicit --config is
// loaded here, after flag parsing, and changed flags are layered on top.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("config") {
		config, err := LoadConfig(mustGetString(cmd, "config"))
		if err != nil {
			return err
		}
		a.config = config
	}

	verbose, quiet, noColor := a.config.Verbose, a.config.Quiet, a.config.NoColor
	var format, logLevel string
	if flags.Changed("verbose") {
		verbose = mustGetBool(cmd, "verbose")
	}
	if flags.Changed("quiet") {
		quiet = mustGetBool(cmd, "quiet")
	}
	if flags.Changed("no-color") {
		noColor = mustGetBool(cmd, "no-color")
	}
	if flags.Changed("format") {
		format = mustGetString(cmd, "format")
	}
	if flags.Changed("log-level") {
		logLevel = mustGetString(cmd, "log-level")
	}
	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)

	logger := NewLogger(a.config)
	a.logger = &logger

	// serve bounds each request with its own write timeout instead.
	if d := mustGetDuration(cmd, "timeout"); d > 0 && cmd.Name() != "serve" {
		ctx, cancel := context.WithTimeout(cmd.Context(), d)
		a.cancel = cancel
		cmd.SetContext(ctx)
	}
	return nil
}

func (a *App) cancelTimeout() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(withGroup("core", imports.NewImportCommand(a)))
	rootCmd.AddCommand(withGroup("core", rows.NewInsertCommand(a)))
	rootCmd.AddCommand(withGroup("core", rows.NewRowsCommand(a)))
	rootCmd.AddCommand(withGroup("core", rows.NewCompareCommand(a)))
	rootCmd.AddCommand(withGroup("core", imports.NewAnalyzeCommand(a)))
	rootCmd.AddCommand(withGroup("core", serve.NewCommand(a)))

	// Management commands
	rootCmd.AddCommand(withGroup("management", datasets.NewDatasetsCommand(a)))
	rootCmd.AddCommand(withGroup("management", datasets.NewStatsCommand(a)))
	rootCmd.AddCommand(withGroup("management", datasets.NewExportCommand(a)))
	rootCmd.AddCommand(withGroup("management", rows.NewRegenerateCommand(a)))

	rootCmd.AddCommand(a.newVersionCommand())
}

func withGroup(id string, cmd *cobra.Command) *cobra.Command {
	cmd.GroupID = id
	return cmd
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("tally %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}

// ExitOnError prints err and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetDuration retrieves a duration flag value or panics if the flag doesn't exist.
func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
