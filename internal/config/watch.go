package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch notifies reloadChan whenever the config file changes on disk.
// It watches the containing directory so editor rename-and-replace saves
// are caught. Blocks until the context is cancelled.
func Watch(ctx context.Context, path string, reloadChan chan<- struct{}, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		// A missing config directory just means there is nothing to
		// reload yet; the daemon keeps its startup configuration.
		logger.Warn("config watch disabled", "path", path, "error", err)
		<-ctx.Done()
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Info("config file changed", "path", path)
			select {
			case reloadChan <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watch error", "error", err)
		}
	}
}
