package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/symdex/internal/logging"
	"github.com/Aman-CERP/symdex/internal/ui"
)

func newLogsCmd() *cobra.Command {
	var (
		follow  bool
		lines   int
		level   string
		filter  string
		noColor bool
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the symdex log file",
		Long: `Show the JSON log written by 'symdex serve' and by any command run with
--debug, formatted one record per line.

Examples:
  symdex logs                  # last 50 records
  symdex logs -f               # follow new records
  symdex logs --level warn     # warnings and errors only
  symdex logs --filter reindex # records matching a regex`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := logFile
			if path == "" {
				path = logging.DefaultLogPath()
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no log file at %s (run 'symdex serve' or pass --debug first)", path)
			}

			var pattern *regexp.Regexp
			if filter != "" {
				var err error
				if pattern, err = regexp.Compile(filter); err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			viewer := logging.NewViewer(logging.ViewerConfig{
				Level:   level,
				Pattern: pattern,
				NoColor: noColor || !ui.IsTTY(out) || ui.DetectNoColor(),
			}, out)

			if !follow {
				entries, err := viewer.Tail(path, lines)
				if err != nil {
					return err
				}
				viewer.Print(entries)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			entries := make(chan logging.Entry, 100)
			errCh := make(chan error, 1)
			go func() { errCh <- viewer.Follow(ctx, path, entries) }()

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Following %s (Ctrl+C to stop)\n", path)
			for {
				select {
				case e := <-entries:
					viewer.Print([]logging.Entry{e})
				case err := <-errCh:
					return err
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow new log records")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&filter, "filter", "", "Show only records matching this regex")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&logFile, "file", "", "Log file path (default ~/.symdex/logs/symdex.log)")
	return cmd
}
