package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
	"github.com/Aman-CERP/symdex/internal/index"
	"github.com/Aman-CERP/symdex/internal/output"
	"github.com/Aman-CERP/symdex/internal/ui"
)

func newReindexCmd() *cobra.Command {
	var (
		stream         bool
		verbose        bool
		streamProgress bool
		jsonOutput     bool
	)

	cmd := &cobra.Command{
		Use:   "reindex <path>",
		Short: "Bring the index up to date for a directory, file, or piped content",
		Long: `Reindex a path. The builtin symbol seed is indexed first if this
database has never completed it.

  directory   every supported file below it is scanned; new and modified
              files are reindexed, deleted ones are removed
  file        the file is reindexed under the index lock
  --stream    content is read from stdin and indexed under path, which
              need not exist (editor buffers, generated code)

A directory always takes the directory route, even with --stream.
Exits non-zero when a single file could not be indexed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fail := func(err error) error {
				if jsonOutput {
					if data, jerr := symerrors.FormatJSON(err); jerr == nil {
						_, _ = fmt.Fprintln(out, string(data))
						return errUnsuccessful
					}
				}
				return err
			}

			// Invalid requests must not create the project database.
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			if strings.TrimSpace(path) == "" {
				return fail(symerrors.InvalidInputError("path is required"))
			}
			if _, err := index.Route(path, stream); err != nil {
				return fail(err)
			}

			if stream && ui.IsTTY(cmd.InOrStdin()) {
				output.New(cmd.ErrOrStderr()).Warning("--stream reads from stdin, which is a terminal; end input with Ctrl-D")
			}

			p, err := openProject(path)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			r, err := index.New(p.db, p.cfg, index.Options{Output: out, Stdin: cmd.InOrStdin()})
			if err != nil {
				return err
			}

			outcome, err := r.Reindex(ctx, index.Request{
				Path:           path,
				UseStream:      stream,
				Verbose:        verbose,
				StreamProgress: streamProgress,
			})
			if err != nil {
				return fail(err)
			}

			if jsonOutput {
				if err := json.NewEncoder(out).Encode(outcome); err != nil {
					return err
				}
			} else if !streamProgress {
				w := output.New(out)
				if outcome.Success {
					w.Successf("Reindexed %s", path)
				} else {
					w.Error(fmt.Sprintf("Could not index %s", path))
				}
			}

			if !outcome.Success {
				return errUnsuccessful
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "Read file content from stdin and index it under path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print per-file progress")
	cmd.Flags().BoolVar(&streamProgress, "stream-progress", false, "Emit JSON-lines progress events for directory runs")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the outcome as JSON")

	return cmd
}
