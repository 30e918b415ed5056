package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/symdex/internal/config"
	"github.com/Aman-CERP/symdex/internal/store"
)

// project is the resolved root, configuration and open database a command
// works against.
type project struct {
	root string
	cfg  *config.Config
	db   *store.DB
}

// openProject finds the project containing target, loads its config and
// opens the index database. target may be a file or a path that does not
// exist yet; discovery then starts from the nearest existing directory.
func openProject(target string) (*project, error) {
	root, err := config.FindProjectRoot(discoveryDir(target))
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.DatabasePath(root)
	if databasePath != "" {
		dbPath = databasePath
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	slog.Debug("project_opened",
		slog.String("root", root),
		slog.String("database", db.Path()))
	return &project{root: root, cfg: cfg, db: db}, nil
}

// Close closes the database.
func (p *project) Close() error {
	return p.db.Close()
}

func discoveryDir(target string) string {
	dir, err := filepath.Abs(target)
	if err != nil {
		return "."
	}
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}
