package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/symdex/internal/output"
	"github.com/Aman-CERP/symdex/internal/store"
)

// statusInfo is the JSON form of `symdex status`.
type statusInfo struct {
	Root           string `json:"root"`
	Database       string `json:"database"`
	BuiltinIndexed bool   `json:"builtin_indexed"`
	Files          int    `json:"files"`
	Symbols        int    `json:"symbols"`
	BuiltinSymbols int    `json:"builtin_symbols"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show what the index contains",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			p, err := openProject(path)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			ctx := cmd.Context()
			stats, err := p.db.Stats(ctx)
			if err != nil {
				return err
			}
			flag, err := p.db.GetSetting(ctx, store.SettingHasIndexedBuiltin)
			if err != nil {
				return err
			}

			info := statusInfo{
				Root:           p.root,
				Database:       p.db.Path(),
				BuiltinIndexed: flag.Truthy(),
				Files:          stats.Files,
				Symbols:        stats.Symbols,
				BuiltinSymbols: stats.BuiltinSymbols,
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			w := output.New(cmd.OutOrStdout())
			w.Header("symdex index")
			w.Field("Project", info.Root)
			w.Field("Database", info.Database)
			seed := "no"
			if info.BuiltinIndexed {
				seed = "yes"
			}
			w.Field("Builtin seed", seed)
			w.Field("Files", info.Files)
			w.Field("Symbols", info.Symbols)
			w.Field("Builtin symbols", info.BuiltinSymbols)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	return cmd
}
