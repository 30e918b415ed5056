package cmd

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/symdex/internal/index"
	"github.com/Aman-CERP/symdex/internal/logging"
	"github.com/Aman-CERP/symdex/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Serve the index to AI coding assistants over the Model Context Protocol.

Tools: reindex, search_symbols, index_status. Stdout carries JSON-RPC
only; logs go to ~/.symdex/logs/symdex.log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := openProject(".")
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			if !debugMode {
				cleanup, err := logging.Install(logging.ServeConfig(p.cfg.Logging.Level))
				if err != nil {
					return err
				}
				defer cleanup()
			}

			// Progress output would corrupt the JSON-RPC stream.
			r, err := index.New(p.db, p.cfg, index.Options{Output: io.Discard, Stdin: eofReader{}})
			if err != nil {
				return err
			}
			srv, err := mcp.NewServer(r, p.db, p.root)
			if err != nil {
				return err
			}
			return srv.Serve(ctx)
		},
	}
}

// eofReader stands in for stdin, which belongs to the transport.
type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
