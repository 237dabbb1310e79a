package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// ReloadDebounce groups the burst of events a single save produces. The
// window opens at the first event and is not extended by later ones, so a
// file that keeps changing still reloads once per window.
const ReloadDebounce = 150 * time.Millisecond

// Watch calls reload after the file at path is written or recreated, until ctx
// is done. A failed reload is logged and the previous state stays in place.
func Watch(ctx context.Context, path string, log *logrus.Logger, reload func(context.Context) error) error {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file instead of writing it, so watch the
	// directory and filter by name.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	log.WithField("path", abs).Info("watching endpoints file")

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.WithField("op", event.Op.String()).Debug("endpoints file changed")
			if fire == nil {
				fire = time.After(ReloadDebounce)
			}
		case <-fire:
			fire = nil
			if err := reload(ctx); err != nil {
				log.WithError(err).Warn("reload failed, keeping previous routes")
				continue
			}
			log.WithField("path", abs).Info("endpoints reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		}
	}
}
