package catalog

import (
	"context"
	"log/slog"

	"github.com/davidbalbert/chatline/config"
)

// Watcher keeps a Store in sync with a catalog file.
type Watcher struct {
	store  *Store
	path   string
	logger *slog.Logger
}

func NewWatcher(store *Store, path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{store: store, path: path, logger: logger}
}

// Run loads the catalog and reloads it whenever the file changes. A file
// that fails to parse after startup is logged and the old index is kept.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.store.Reload(w.path); err != nil {
		return err
	}
	w.logger.Info("catalog loaded", "path", w.path, "items", w.store.Index().Len())

	return config.WatchFile(ctx, w.path, w.logger, func() {
		if err := w.store.Reload(w.path); err != nil {
			w.logger.Error("keeping current catalog", "path", w.path, "err", err)
			return
		}

		w.logger.Info("catalog reloaded", "path", w.path, "items", w.store.Index().Len())
	})
}
