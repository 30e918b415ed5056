// Package watcher keeps the index current while files change.
//
// A Watcher reports debounced batches of file events for a project root,
// using fsnotify where available and polling otherwise. Paths the scanner
// would skip are filtered out before debouncing. A Syncer applies each batch
// to the index: changed files are reindexed one at a time, deleted files
// and directories are forgotten, and .gitignore or config changes trigger a
// directory rescan.
//
// Usage:
//
//	w, err := watcher.New(watcher.Options{Filter: filter})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	go func() { _ = w.Start(ctx) }()
//	return watcher.NewSyncer(reindexer, root, filter).Run(ctx, w.Events())
package watcher
