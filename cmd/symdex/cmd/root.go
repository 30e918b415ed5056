// Package cmd provides the CLI commands for symdex.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
	"github.com/Aman-CERP/symdex/internal/logging"
	"github.com/Aman-CERP/symdex/internal/profiling"
	"github.com/Aman-CERP/symdex/pkg/version"
)

// errUnsuccessful makes the process exit non-zero after a reindex that
// reported success=false. The command has already printed the outcome.
var errUnsuccessful = errors.New("reindex unsuccessful")

// Persistent flags.
var (
	debugMode    bool
	databasePath string
	profileOpts  profiling.Options

	loggingCleanup func()
	profile        *profiling.Session
)

// NewRootCmd creates the root command for the symdex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symdex",
		Short: "Keep a symbol index of your code up to date",
		Long: `symdex maintains a SQLite index of the symbols (functions, types,
classes, methods) declared in a codebase, plus a builtin seed of
language-level symbols.

Reindex a directory, a single file, or content piped on stdin. Concurrent
single-file reindexes against the same database are serialized with a
lock file next to it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("symdex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.symdex/logs/")
	cmd.PersistentFlags().StringVar(&databasePath, "database", "", "Index database path (overrides config; \":memory:\" for a throwaway index)")
	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startRun
	cmd.PersistentPostRunE = stopRun

	cmd.AddCommand(newReindexCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startRun installs logging and starts profiling.
func startRun(cmd *cobra.Command, _ []string) error {
	if debugMode {
		cleanup, err := logging.Install(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	} else {
		logging.InstallStderr(cmd.ErrOrStderr(), "warn")
	}

	if profileOpts.Enabled() {
		s, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profile = s
	}
	return nil
}

// stopRun flushes profiles and closes the log file.
func stopRun(_ *cobra.Command, _ []string) error {
	err := profile.Stop()
	profile = nil

	if loggingCleanup != nil {
		slog.Info("debug_logging_stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	// PersistentPostRunE is skipped when RunE fails.
	_ = stopRun(nil, nil)
	if err != nil && !errors.Is(err, errUnsuccessful) && !errors.Is(err, errChecksFailed) {
		_, _ = fmt.Fprint(os.Stderr, symerrors.FormatForCLI(err))
	}
	return err
}
