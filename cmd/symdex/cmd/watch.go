package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/symdex/internal/index"
	"github.com/Aman-CERP/symdex/internal/output"
	"github.com/Aman-CERP/symdex/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		verbose bool
		poll    bool
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Reindex a directory, then keep the index in sync with file changes",
		Long: `Run a directory reindex, then watch the tree and apply each batch of
changes: modified and created files are reindexed one by one, deleted
files and directories are removed from the index. A .gitignore change
triggers a full directory rescan. Config changes also rescan, but new
settings apply only after a restart.

Falls back to polling when native file notifications are unavailable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", dir, err)
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Errorf("not a directory: %s", dir)
			}
			return runWatch(ctx, cmd, dir, verbose, poll)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print per-file progress")
	cmd.Flags().BoolVar(&poll, "poll", false, "Poll for changes instead of using native notifications")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, dir string, verbose, poll bool) error {
	out := output.New(cmd.OutOrStdout())

	p, err := openProject(dir)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	r, err := index.New(p.db, p.cfg, index.Options{Output: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	if _, err := r.Reindex(ctx, index.Request{Path: dir, Verbose: verbose}); err != nil {
		return err
	}

	filter, err := index.NewFilter(p.cfg, dir)
	if err != nil {
		return err
	}
	w, err := watcher.New(watcher.Options{
		Filter:       filter,
		Debounce:     p.cfg.DebounceDuration(),
		ForcePolling: poll,
	})
	if err != nil {
		return err
	}

	syncer := watcher.NewSyncer(r, dir, filter)
	syncer.SetVerbose(verbose)

	out.Successf("Watching %s (%s)", dir, w.Mode())
	slog.Info("watch_started", slog.String("dir", dir), slog.String("mode", w.Mode()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Start(gctx)
	})
	g.Go(func() error {
		defer func() { _ = w.Stop() }()
		return syncer.Run(gctx, w.Events())
	})
	err = g.Wait()

	stats := syncer.Stats()
	out.Status("", fmt.Sprintf("%d reindexed, %d failed, %d removed, %d rescans",
		stats.Indexed, stats.Failed, stats.Forgotten, stats.Rescans))

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
