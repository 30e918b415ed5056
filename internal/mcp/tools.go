package mcp

// ReindexInput defines the input schema for the reindex tool.
type ReindexInput struct {
	Path    string  `json:"path" jsonschema:"file or directory to reindex, relative to the project root or absolute"`
	Content *string `json:"content,omitempty" jsonschema:"file content to index under path instead of reading it from disk"`
	Verbose bool    `json:"verbose,omitempty" jsonschema:"log per-file progress"`
}

// ReindexOutput defines the output schema for the reindex tool.
type ReindexOutput struct {
	Success bool   `json:"success" jsonschema:"false when the file could not be indexed"`
	Path    string `json:"path" jsonschema:"absolute path that was reindexed"`
	Route   string `json:"route" jsonschema:"directory or single_file"`
}

// SearchSymbolsInput defines the input schema for the search_symbols tool.
type SearchSymbolsInput struct {
	Name  string `json:"name" jsonschema:"symbol name or name prefix"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 20"`
}

// SearchSymbolsOutput defines the output schema for the search_symbols tool.
type SearchSymbolsOutput struct {
	Symbols []SymbolOutput `json:"symbols"`
}

// SymbolOutput is one symbol match.
type SymbolOutput struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Language  string `json:"language"`
	FilePath  string `json:"file_path,omitempty" jsonschema:"empty for builtin symbols"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	Signature string `json:"signature,omitempty"`
	Builtin   bool   `json:"builtin"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Project  ProjectInfo `json:"project"`
	Database string      `json:"database"`
	Stats    IndexStats  `json:"stats"`
}

// ProjectInfo contains information about the indexed project.
type ProjectInfo struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
	Type     string `json:"type"`
}

// IndexStats contains statistics about the index.
type IndexStats struct {
	BuiltinIndexed bool `json:"builtin_indexed"`
	FileCount      int  `json:"file_count"`
	SymbolCount    int  `json:"symbol_count"`
	BuiltinSymbols int  `json:"builtin_symbols"`
}
