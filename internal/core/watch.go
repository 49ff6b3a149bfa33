package core

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig monitors path for changes and calls onChange with the newly
// loaded Config each time the file is written. It runs until ctx is cancelled.
//
// A reload that fails to parse or validate is logged and onChange is not
// called, so the previous config stays active.
func WatchConfig(ctx context.Context, path string, logger *Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	logger.Info("Watching config for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so Create counts as a write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			config, err := LoadConfig(path)
			if err != nil {
				logger.Error("Config reload failed, keeping previous config", "path", path, "error", err)
				continue
			}

			logger.Info("Config reloaded", "path", path)
			onChange(config)

			// Re-add the file in case an atomic save replaced the inode
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Config watcher error", "error", err)
		}
	}
}
