package loadout

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the on-disk loadout definition directory and logs when
// definitions change. It never reloads the registry itself: the registry
// stays read-only until an operator triggers an explicit reload.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

func NewWatcher(dir string, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{dir: dir, watcher: fw, logger: logger}, nil
}

// Run blocks until the context is done, logging definition changes.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isDefinition(event.Name) {
				continue
			}
			w.logger.Warn("loadout definitions changed on disk; explicit reload required",
				"file", event.Name,
				"op", event.Op.String(),
			)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("loadout watcher error", "error", err)
		}
	}
}

func isDefinition(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
