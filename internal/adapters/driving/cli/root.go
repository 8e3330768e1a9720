// Package cli provides the docstruct command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstruct/internal/core/ports/driving"
	"github.com/custodia-labs/docstruct/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services are the driving ports the commands call. Optional ports may be nil;
// commands that need a missing port report it as not configured.
type Services struct {
	Structurer driving.Structurer
	Batch      driving.BatchRunner
	Settings   driving.SettingsService
	Fetcher    driving.WorkspaceFetcher

	// NewWatcher builds a workspace watcher that reports each run to onRun.
	NewWatcher func(onRun func(docID string, results []driving.StageResult, err error)) driving.WorkspaceWatcher

	// WorkspaceRoot is printed by the watch command.
	WorkspaceRoot string
}

// Options are the global flag values.
type Options struct {
	ConfigPath string
	Verbose    bool
	JSONLogs   bool
}

// Bootstrap builds the services once the global flags are parsed.
// The returned cleanup func runs after the command finishes.
type Bootstrap func(opts Options) (*Services, func(), error)

var (
	structurer      driving.Structurer
	batchRunner     driving.BatchRunner
	settingsService driving.SettingsService
	fetcher         driving.WorkspaceFetcher
	newWatcher      func(onRun func(docID string, results []driving.StageResult, err error)) driving.WorkspaceWatcher
	workspaceRoot   string

	bootstrap Bootstrap
	cleanup   func()
	options   Options
)

var rootCmd = &cobra.Command{
	Use:   "docstruct",
	Short: "Structure layout-parser output into canonical documents",
	Long: `docstruct turns the JSON output of a PDF layout parser into one
canonical document per PDF: an ordered list of typed elements with
fragmented paragraphs repaired and the body separated from the front
and back matter.

Each document lives in its own directory under the workspace root.
Stages are idempotent; use --force to re-apply a completed stage.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRoot,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&options.ConfigPath, "config", "", "config file (default ~/.docstruct/config.toml)")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&options.JSONLogs, "json-logs", false, "emit logs as JSON")
}

// SetServices installs the services directly, bypassing bootstrap.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	structurer = s.Structurer
	batchRunner = s.Batch
	settingsService = s.Settings
	fetcher = s.Fetcher
	newWatcher = s.NewWatcher
	workspaceRoot = s.WorkspaceRoot
}

// Execute runs the root command. boot is called after flag parsing and may be
// nil when services were installed with SetServices.
func Execute(ctx context.Context, v string, boot Bootstrap) error {
	if v != "" {
		version = v
	}
	bootstrap = boot
	// PersistentPostRun is skipped when a command fails.
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	// cmd.Print* writes to stderr unless an output writer is set.
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func setupRoot(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetVerbose(options.Verbose)
	logger.SetJSON(options.JSONLogs)

	if bootstrap == nil || skipBootstrap(cmd) {
		return nil
	}

	s, done, err := bootstrap(options)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(s)
	cleanup = done
	return nil
}

// skipBootstrap reports whether cmd runs without any services.
func skipBootstrap(cmd *cobra.Command) bool {
	return cmd == versionCmd || cmd.Name() == "help" || cmd.Name() == "completion"
}
