package watcher

import (
	"context"
	"errors"
	"log/slog"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
	"github.com/Aman-CERP/symdex/internal/index"
	"github.com/Aman-CERP/symdex/internal/scanner"
)

// Indexer is the part of index.Reindexer the Syncer drives.
type Indexer interface {
	Reindex(ctx context.Context, req index.Request) (index.Outcome, error)
	Forget(ctx context.Context, path string) error
}

// Stats counts what a Syncer has applied.
type Stats struct {
	Indexed   int
	Failed    int
	Forgotten int
	Rescans   int
}

// Syncer applies watch batches to the index.
type Syncer struct {
	idx     Indexer
	root    string
	filter  *scanner.Filter
	verbose bool
	stats   Stats
}

// NewSyncer creates a Syncer for the project at root.
func NewSyncer(idx Indexer, root string, filter *scanner.Filter) *Syncer {
	return &Syncer{idx: idx, root: root, filter: filter}
}

// SetVerbose makes reindex calls print per-file output.
func (s *Syncer) SetVerbose(v bool) {
	s.verbose = v
}

// Stats returns the counts so far.
func (s *Syncer) Stats() Stats {
	return s.stats
}

// Run applies batches until events is closed or ctx is done. It returns the
// first fatal indexing error.
func (s *Syncer) Run(ctx context.Context, events <-chan []FileEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Apply(ctx, batch); err != nil {
				return err
			}
		}
	}
}

// Apply handles one batch. Deletions are forgotten first. A .gitignore or
// config change rescans the whole root instead of handling the remaining
// events one by one.
func (s *Syncer) Apply(ctx context.Context, batch []FileEvent) error {
	rescan := false
	var changed []FileEvent

	for _, ev := range batch {
		switch ev.Operation {
		case OpDelete, OpRename:
			if err := s.idx.Forget(ctx, ev.Path); err != nil {
				return err
			}
			s.stats.Forgotten++
		case OpGitignoreChange:
			rescan = true
		case OpConfigChange:
			slog.Warn("config_changed_restart_to_apply", slog.String("path", ev.Path))
			rescan = true
		default:
			changed = append(changed, ev)
		}
	}

	if rescan {
		if s.filter != nil {
			s.filter.ResetGitignore()
		}
		s.stats.Rescans++
		_, err := s.idx.Reindex(ctx, index.Request{Path: s.root, Verbose: s.verbose, Rescan: true})
		return s.tolerate(err)
	}

	for _, ev := range changed {
		if !ev.IsDir && s.filter != nil && !s.filter.Allows(ev.Path) {
			continue
		}
		out, err := s.idx.Reindex(ctx, index.Request{Path: ev.Path, Verbose: s.verbose})
		if err := s.tolerate(err); err != nil {
			return err
		}
		if err == nil && out.Success {
			s.stats.Indexed++
		} else {
			s.stats.Failed++
		}
	}
	return nil
}

// tolerate drops errors caused by a path disappearing before it was read.
func (s *Syncer) tolerate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, symerrors.ErrInvalidPath) {
		slog.Debug("watch_path_vanished", slog.String("error", err.Error()))
		return nil
	}
	return err
}
