// Package store provides the index database: a SQLite file (or in-memory
// database) holding the settings table, tracked files and extracted symbols.
package store

import (
	"time"
)

// MemoryPath is the sentinel path for a database with no backing file.
const MemoryPath = ":memory:"

// Setting names.
const (
	// SettingHasIndexedBuiltin records whether the builtin symbol seed has
	// completed for this database ("1") or not ("0" or absent).
	SettingHasIndexedBuiltin = "has_indexed_builtin"

	// SettingSchemaVersion stores the schema version the database was created with.
	SettingSchemaVersion = "schema_version"
)

// CurrentSchemaVersion is the current database schema version.
const CurrentSchemaVersion = 1

// Setting is one row of the settings table.
type Setting struct {
	ID    int64
	Name  string
	Value string
}

// Truthy reports whether the setting holds a set flag. Empty and "0" are false.
func (s *Setting) Truthy() bool {
	if s == nil {
		return false
	}
	switch s.Value {
	case "", "0", "false":
		return false
	default:
		return true
	}
}

// SymbolKind is the kind of an indexed symbol.
type SymbolKind string

const (
	SymbolKindFunction  SymbolKind = "function"
	SymbolKindClass     SymbolKind = "class"
	SymbolKindInterface SymbolKind = "interface"
	SymbolKindType      SymbolKind = "type"
	SymbolKindVariable  SymbolKind = "variable"
	SymbolKindConstant  SymbolKind = "constant"
	SymbolKindMethod    SymbolKind = "method"
)

// Symbol is an indexed symbol row.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Language   string
	FilePath   string // empty for builtin symbols
	StartLine  int
	EndLine    int
	Signature  string
	DocComment string
	Builtin    bool
}

// File is a tracked source file.
type File struct {
	Path        string    // Absolute, cleaned path
	Language    string    // go, php, python, ...
	ModifiedAt  time.Time // Modification time the index reflects
	IndexedAt   time.Time // When the file was last written to the index
	ContentHash string    // SHA256 of the indexed content
}

// Stats summarizes index contents.
type Stats struct {
	Files          int
	Symbols        int
	BuiltinSymbols int
}
