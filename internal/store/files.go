package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileModifiedMap returns the last known modification time of every tracked file.
func (s *DB) FileModifiedMap(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, modified_at FROM files`)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]time.Time)
	for rows.Next() {
		var path string
		var modNano int64
		if err := rows.Scan(&path, &modNano); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		result[path] = time.Unix(0, modNano)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate files: %w", err)
	}
	return result, nil
}

// GetFile returns the tracked file at path, or nil if it is not indexed.
func (s *DB) GetFile(ctx context.Context, path string) (*File, error) {
	var f File
	var modNano, idxNano int64
	err := s.db.QueryRowContext(ctx,
		`SELECT path, language, modified_at, indexed_at, content_hash FROM files WHERE path = ?`, path,
	).Scan(&f.Path, &f.Language, &modNano, &idxNano, &f.ContentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	f.ModifiedAt = time.Unix(0, modNano)
	f.IndexedAt = time.Unix(0, idxNano)
	return &f, nil
}

// ReplaceFile upserts the file row and replaces its symbols in one transaction.
func (s *DB) ReplaceFile(ctx context.Context, file File, symbols []Symbol) error {
	if file.Path == "" {
		return fmt.Errorf("file path is required")
	}
	if file.IndexedAt.IsZero() {
		file.IndexedAt = time.Now()
	}

	return s.WithTx(ctx, func(tx *sql.Tx) error {
		var fileID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO files (path, language, modified_at, indexed_at, content_hash)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				language = excluded.language,
				modified_at = excluded.modified_at,
				indexed_at = excluded.indexed_at,
				content_hash = excluded.content_hash
			RETURNING id`,
			file.Path, file.Language, file.ModifiedAt.UnixNano(), file.IndexedAt.UnixNano(), file.ContentHash,
		).Scan(&fileID)
		if err != nil {
			return fmt.Errorf("failed to upsert file %s: %w", file.Path, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
			return fmt.Errorf("failed to clear symbols for %s: %w", file.Path, err)
		}

		return insertSymbols(ctx, tx, sql.NullInt64{Int64: fileID, Valid: true}, symbols)
	})
}

// DeleteFile removes a tracked file and its symbols. Missing files are not an error.
func (s *DB) DeleteFile(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}

// DeleteTree removes path and every tracked file below it, for a deleted
// file or directory. It returns the number of files removed.
func (s *DB) DeleteTree(ctx context.Context, path string) (int64, error) {
	prefix := strings.TrimSuffix(path, string(filepath.Separator)) + string(filepath.Separator)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM files WHERE path = ? OR path LIKE ? ESCAPE '\'`,
		path, escapeLike(prefix)+"%")
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted files: %w", err)
	}
	return n, nil
}

// ReplaceBuiltinSymbols replaces every builtin symbol of language.
func (s *DB) ReplaceBuiltinSymbols(ctx context.Context, language string, symbols []Symbol) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM symbols WHERE is_builtin = 1 AND language = ?`, language,
		); err != nil {
			return fmt.Errorf("failed to clear builtin symbols for %s: %w", language, err)
		}
		for i := range symbols {
			symbols[i].Builtin = true
			symbols[i].Language = language
		}
		return insertSymbols(ctx, tx, sql.NullInt64{}, symbols)
	})
}

func insertSymbols(ctx context.Context, tx *sql.Tx, fileID sql.NullInt64, symbols []Symbol) error {
	if len(symbols) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbols (file_id, name, kind, language, start_line, end_line, signature, doc_comment, is_builtin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare symbol insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, sym := range symbols {
		builtin := 0
		if sym.Builtin {
			builtin = 1
		}
		if _, err := stmt.ExecContext(ctx,
			fileID, sym.Name, string(sym.Kind), sym.Language,
			sym.StartLine, sym.EndLine, sym.Signature, sym.DocComment, builtin,
		); err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", sym.Name, err)
		}
	}
	return nil
}

// SearchSymbols returns symbols whose name matches the given prefix, exact
// matches first.
func (s *DB) SearchSymbols(ctx context.Context, name string, limit int) ([]Symbol, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.name, s.kind, s.language, COALESCE(f.path, ''), s.start_line, s.end_line,
		       s.signature, s.doc_comment, s.is_builtin
		FROM symbols s
		LEFT JOIN files f ON f.id = s.file_id
		WHERE s.name LIKE ? ESCAPE '\'
		ORDER BY (s.name = ?) DESC, s.is_builtin ASC, s.name ASC, s.id ASC
		LIMIT ?`,
		escapeLike(name)+"%", name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Symbol
	for rows.Next() {
		var sym Symbol
		var kind string
		var builtin int
		if err := rows.Scan(&sym.Name, &kind, &sym.Language, &sym.FilePath,
			&sym.StartLine, &sym.EndLine, &sym.Signature, &sym.DocComment, &builtin); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		sym.Kind = SymbolKind(kind)
		sym.Builtin = builtin == 1
		result = append(result, sym)
	}
	return result, rows.Err()
}

// Stats returns file and symbol counts.
func (s *DB) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM files),
			(SELECT COUNT(*) FROM symbols WHERE is_builtin = 0),
			(SELECT COUNT(*) FROM symbols WHERE is_builtin = 1)`,
	).Scan(&st.Files, &st.Symbols, &st.BuiltinSymbols)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}
	return st, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
