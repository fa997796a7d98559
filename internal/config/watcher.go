package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mverge/camwatch/internal/logger"
)

// Watch reloads the global configuration whenever the config file changes.
// It returns a stop function. Watching a config loaded purely from defaults
// (empty path) is a no-op.
func Watch() (func(), error) {
	configMu.RLock()
	path := globalPath
	configMu.RUnlock()

	if path == "" {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors replace files on save, which drops
	// the watch on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := Load(path); err != nil {
					logger.Warn("config reload failed: %v", err)
					continue
				}
				logger.Info("configuration reloaded from %s", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error: %v", err)
			case <-done:
				return
			}
		}
	}()

	stop := func() {
		close(done)
		watcher.Close()
	}
	return stop, nil
}
