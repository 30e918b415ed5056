// Package preflight checks that a project can be indexed.
//
// The checks cover the configuration, the database directory (free space
// and write access), the database itself (integrity, builtin seed, lock)
// and the file descriptor limit that watch mode depends on.
//
//	results := preflight.New(root, "").RunAll(ctx)
//	if preflight.HasCriticalFailures(results) {
//	    // report and exit non-zero
//	}
package preflight
