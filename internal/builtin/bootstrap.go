package builtin

import (
	"context"
	"log/slog"

	symerrors "github.com/Aman-CERP/symdex/internal/errors"
	"github.com/Aman-CERP/symdex/internal/store"
)

// Bootstrapper runs the builtin seed the first time it is needed for a
// database and records completion in the has_indexed_builtin setting.
//
// It does not take the index lock: two processes bootstrapping a fresh
// database at the same time may both seed. The seed replaces builtin rows
// per language, so the result is the same either way.
type Bootstrapper struct {
	db      *store.DB
	indexer Indexer
}

// NewBootstrapper creates a Bootstrapper.
func NewBootstrapper(db *store.DB, indexer Indexer) *Bootstrapper {
	return &Bootstrapper{db: db, indexer: indexer}
}

// EnsureIndexed runs the builtin indexer unless the database records a
// completed seed. Indexer errors are returned unchanged and leave the flag
// untouched.
func (b *Bootstrapper) EnsureIndexed(ctx context.Context, showOutput bool) error {
	flag, err := b.db.GetSetting(ctx, store.SettingHasIndexedBuiltin)
	if err != nil {
		return err
	}
	if flag.Truthy() {
		slog.Debug("builtin_bootstrap_skipped")
		return nil
	}

	slog.Info("builtin_bootstrap_started", slog.Bool("flag_present", flag != nil))

	if err := b.indexer.IndexBuiltins(ctx, showOutput); err != nil {
		return err
	}

	err = b.db.Settings().Set(ctx, store.SettingHasIndexedBuiltin, "1")
	if err != nil {
		return symerrors.BuiltinError("failed to record builtin seed", err)
	}

	slog.Info("builtin_bootstrap_completed")
	return nil
}
