package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
	"github.com/Aman-CERP/symdex/internal/index"
	"github.com/Aman-CERP/symdex/internal/store"
	"github.com/Aman-CERP/symdex/pkg/version"
)

const (
	defaultSymbolLimit = 20
	maxSymbolLimit     = 200
)

// Indexer is the part of index.Reindexer the server drives.
type Indexer interface {
	Reindex(ctx context.Context, req index.Request) (index.Outcome, error)
}

// Server is the MCP server for symdex. It lets AI clients refresh the
// index after editing files and look up symbols in it.
type Server struct {
	mcp     *mcp.Server
	indexer Indexer
	db      *store.DB
	root    string
	logger  *slog.Logger

	// reindexMu runs one reindex at a time per server.
	reindexMu sync.Mutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "reindex",
		Description: "Bring the symbol index up to date for a file or directory. Pass content to index unsaved editor content under path.",
	},
	{
		Name:        "search_symbols",
		Description: "Find indexed symbols (functions, types, classes, methods, builtins) by name or name prefix. Exact matches come first.",
	},
	{
		Name:        "index_status",
		Description: "Report file and symbol counts and whether the builtin seed has been indexed.",
	},
}

// NewServer creates a new MCP server. Relative tool paths are resolved
// against root.
func NewServer(indexer Indexer, db *store.DB, root string) (*Server, error) {
	if indexer == nil {
		return nil, errors.New("indexer is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	s := &Server{
		indexer: indexer,
		db:      db,
		root:    abs,
		logger:  slog.Default(),
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "symdex",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return append([]ToolInfo(nil), tools...)
}

// CallTool invokes a tool by name, decoding args into the tool's input type.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "reindex":
		var in ReindexInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.handleReindex(ctx, in)
	case "search_symbols":
		var in SearchSymbolsInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.handleSearchSymbols(ctx, in)
	case "index_status":
		return s.handleIndexStatus(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func decodeArgs(args map[string]any, v any) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(data, v); err != nil {
		return NewInvalidParamsError(err.Error())
	}
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpReindexHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpSearchSymbolsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpIndexStatusHandler)
	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpReindexHandler(ctx context.Context, _ *mcp.CallToolRequest, input ReindexInput) (
	*mcp.CallToolResult,
	ReindexOutput,
	error,
) {
	out, err := s.handleReindex(ctx, input)
	if err != nil {
		return nil, ReindexOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) mcpSearchSymbolsHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchSymbolsInput) (
	*mcp.CallToolResult,
	SearchSymbolsOutput,
	error,
) {
	found, err := s.searchSymbols(ctx, input)
	if err != nil {
		return nil, SearchSymbolsOutput{}, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatSymbols(input.Name, found)}},
	}, symbolsOutput(found), nil
}

func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	out, err := s.handleIndexStatus(ctx)
	if err != nil {
		return nil, IndexStatusOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleReindex(ctx context.Context, input ReindexInput) (ReindexOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return ReindexOutput{}, NewInvalidParamsError("path parameter is required")
	}
	start := time.Now()
	requestID := generateRequestID()
	path := s.resolve(input.Path)

	// Each call is a fresh pass over the tree; the process outlives edits.
	req := index.Request{Path: path, Verbose: input.Verbose, Rescan: true}
	if input.Content != nil {
		req.UseStream = true
		req.Stream = strings.NewReader(*input.Content)
	}

	s.logger.Info("mcp_reindex_started",
		slog.String("request_id", requestID),
		slog.String("path", path),
		slog.Bool("stream", req.UseStream))

	s.reindexMu.Lock()
	outcome, err := s.indexer.Reindex(ctx, req)
	s.reindexMu.Unlock()
	if err != nil {
		attrs := append([]any{slog.String("request_id", requestID)}, symerrors.LogAttrs(err)...)
		s.logger.Error("mcp_reindex_failed", attrs...)
		return ReindexOutput{}, MapError(err)
	}

	route := index.RouteSingleFile
	if kind, err := index.Route(path, req.UseStream); err == nil {
		route = kind
	}

	s.logger.Info("mcp_reindex_completed",
		slog.String("request_id", requestID),
		slog.Bool("success", outcome.Success),
		slog.Duration("duration", time.Since(start)))

	return ReindexOutput{Success: outcome.Success, Path: path, Route: route.String()}, nil
}

func (s *Server) handleSearchSymbols(ctx context.Context, input SearchSymbolsInput) (SearchSymbolsOutput, error) {
	found, err := s.searchSymbols(ctx, input)
	if err != nil {
		return SearchSymbolsOutput{}, err
	}
	return symbolsOutput(found), nil
}

func (s *Server) searchSymbols(ctx context.Context, input SearchSymbolsInput) ([]store.Symbol, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, NewInvalidParamsError("name parameter is required")
	}
	limit := clampLimit(input.Limit, defaultSymbolLimit, maxSymbolLimit)

	found, err := s.db.SearchSymbols(ctx, input.Name, limit)
	if err != nil {
		return nil, MapError(err)
	}
	s.logger.Debug("mcp_search_symbols",
		slog.String("name", input.Name),
		slog.Int("results", len(found)))
	return found, nil
}

func (s *Server) handleIndexStatus(ctx context.Context) (IndexStatusOutput, error) {
	stats, err := s.db.Stats(ctx)
	if err != nil {
		return IndexStatusOutput{}, MapError(err)
	}
	flag, err := s.db.GetSetting(ctx, store.SettingHasIndexedBuiltin)
	if err != nil {
		return IndexStatusOutput{}, MapError(err)
	}

	return IndexStatusOutput{
		Project:  DetectProject(s.root),
		Database: s.db.Path(),
		Stats: IndexStats{
			BuiltinIndexed: flag.Truthy(),
			FileCount:      stats.Files,
			SymbolCount:    stats.Symbols,
			BuiltinSymbols: stats.BuiltinSymbols,
		},
	}, nil
}

func (s *Server) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.root, path)
}

// Serve runs the server over stdio until ctx is canceled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp_server_started", slog.String("root", s.root))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
