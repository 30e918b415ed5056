package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/symdex/internal/config"
	"github.com/Aman-CERP/symdex/internal/output"
	"github.com/Aman-CERP/symdex/internal/preflight"
)

// errChecksFailed makes doctor exit non-zero once results are printed.
var errChecksFailed = errors.New("preflight checks failed")

func newDoctorCmd() *cobra.Command {
	var (
		jsonOutput bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Check that the project can be indexed",
		Long: `Run preflight checks for the project containing path: config validity,
free space and write access where the index lives, index integrity and
builtin seed, the index lock, and the open file limit used by watch mode.

Exits non-zero when a required check fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			root, err := config.FindProjectRoot(discoveryDir(path))
			if err != nil {
				return err
			}

			results := preflight.New(root, databasePath).RunAll(cmd.Context())
			summary := preflight.Summary(results)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(struct {
					Root    string                  `json:"root"`
					Status  string                  `json:"status"`
					Results []preflight.CheckResult `json:"results"`
				}{root, summary, results}); err != nil {
					return err
				}
			} else {
				printChecks(output.New(cmd.OutOrStdout()), root, results, summary, verbose)
			}

			if preflight.HasCriticalFailures(results) {
				return errChecksFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show check details")
	return cmd
}

func printChecks(w *output.Writer, root string, results []preflight.CheckResult, summary string, verbose bool) {
	w.Header("symdex doctor " + filepath.Base(root))
	for _, r := range results {
		line := fmt.Sprintf("%s: %s", r.Name, r.Message)
		switch r.Status {
		case preflight.StatusPass:
			w.Success(line)
		case preflight.StatusWarn:
			w.Warning(line)
		default:
			if r.Required {
				w.Error(line)
			} else {
				w.Warning(line)
			}
		}
		if verbose && r.Details != "" {
			w.Status("", "  "+r.Details)
		}
	}
	w.Field("Status", summary)
}
