package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/symdex/internal/builtin"
	"github.com/Aman-CERP/symdex/internal/output"
	"github.com/Aman-CERP/symdex/internal/store"
	"github.com/Aman-CERP/symdex/pkg/version"
)

// versionReport is the build plus the index format this binary writes.
type versionReport struct {
	version.BuildInfo
	SchemaVersion int      `json:"schema_version"`
	Builtins      []string `json:"builtin_languages"`
}

func newVersionReport() (versionReport, error) {
	cat, err := builtin.LoadCatalog()
	if err != nil {
		return versionReport{}, err
	}
	return versionReport{
		BuildInfo:     version.GetInfo(),
		SchemaVersion: store.CurrentSchemaVersion,
		Builtins:      cat.Languages(),
	}, nil
}

func newVersionCmd() *cobra.Command {
	var jsonOutput, short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build, schema and builtin catalog versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(out, version.Version)
				return err
			}

			report, err := newVersionReport()
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			w := output.New(out)
			w.Header("symdex " + report.Version)
			w.Field("commit", report.Commit)
			w.Field("built", report.Date)
			w.Field("go", fmt.Sprintf("%s %s/%s", report.GoVersion, report.OS, report.Arch))
			w.Field("schema", report.SchemaVersion)
			w.Field("builtins", strings.Join(report.Builtins, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
