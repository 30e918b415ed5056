// Package index keeps the symbol index in step with the code on disk: it
// routes a path to the directory or single-file indexer, seeds builtins
// first, and serializes single-file writes under the index lock.
package index

import (
	"os"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
)

// RouteKind is the indexing route chosen for a path.
type RouteKind int

const (
	// RouteDirectory indexes every supported file under a directory.
	RouteDirectory RouteKind = iota + 1
	// RouteSingleFile indexes one file, from disk or from the stream.
	RouteSingleFile
)

// String returns the route name.
func (k RouteKind) String() string {
	switch k {
	case RouteDirectory:
		return "directory"
	case RouteSingleFile:
		return "single_file"
	default:
		return "unknown"
	}
}

// Route classifies path. An existing directory always takes the directory
// route, even when useStream is set. An existing regular file, or any path
// when useStream is set, takes the single-file route. Anything else is an
// InvalidPathError. Route has no side effects beyond a stat.
func Route(path string, useStream bool) (RouteKind, error) {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return RouteDirectory, nil
		}
		if info.Mode().IsRegular() {
			return RouteSingleFile, nil
		}
	}
	if useStream {
		return RouteSingleFile, nil
	}
	return 0, symerrors.InvalidPathError(path)
}
