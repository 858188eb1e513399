package rotation

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Atomic saves land as a temp-file rename, so changes arrive as bursts of
// create/rename events. Let the file settle before nudging.
const settleDelay = 250 * time.Millisecond

// Watch reports schedule file changes as nudges on the returned channel
// until ctx ends. Nudges coalesce; the channel is never closed. The caller
// performs the actual reload from its own loop, which keeps the scheduler
// single-threaded — Watch only shortens the latency of the mtime poll.
func Watch(ctx context.Context, path string) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("rotation: watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("rotation: watch %s: %w", dir, err)
	}

	nudges := make(chan struct{}, 1)
	base := filepath.Base(path)

	go func() {
		defer w.Close()
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		notify := func() {
			select {
			case nudges <- struct{}{}:
			default:
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(settleDelay, notify)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Str("path", path).Msg("[rotation] watch error")
			}
		}
	}()

	return nudges, nil
}
