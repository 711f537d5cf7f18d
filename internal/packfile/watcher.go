package packfile

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/solatis/packgate/internal/types"
)

// debounceWindow batches bursts of filesystem events (editors write packs
// as create+write+rename sequences) into a single reload.
const debounceWindow = 250 * time.Millisecond

// Watcher reloads a pack directory on change and delivers validated pack
// sets to the reload callback. Invalid packs are skipped with a log line;
// one bad file never takes down the previously loaded set.
type Watcher struct {
	dir    string
	logger *slog.Logger
	reload func(packs []*types.Pack, lintFailures int)
}

// NewWatcher creates a watcher over dir. reload is called with the full
// freshly loaded pack set, and the number of packs dropped for lint
// failures, after every settled change.
func NewWatcher(dir string, logger *slog.Logger, reload func(packs []*types.Pack, lintFailures int)) *Watcher {
	return &Watcher{dir: dir, logger: logger, reload: reload}
}

// Run loads the directory once, then blocks watching for changes until the
// context is cancelled. The initial load error is returned; later load
// failures are logged and the previous set stays in effect.
func (w *Watcher) Run(ctx context.Context) error {
	packs, dropped, err := loadValid(w.dir, w.logger)
	if err != nil {
		return err
	}
	w.reload(packs, dropped)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("pack watcher error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			packs, dropped, err := loadValid(w.dir, w.logger)
			if err != nil {
				w.logger.Error("pack reload failed, keeping previous set", "error", err)
				continue
			}
			w.logger.Info("packs reloaded", "count", len(packs), "dropped", dropped)
			w.reload(packs, dropped)
		}
	}
}

// relevantEvent filters to events that can change pack content.
func relevantEvent(ev fsnotify.Event) bool {
	ext := filepath.Ext(ev.Name)
	if ext != ".yaml" && ext != ".yml" {
		return false
	}
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

// loadValid loads every pack in dir, dropping packs that fail validation.
func loadValid(dir string, logger *slog.Logger) ([]*types.Pack, int, error) {
	packs, err := LoadDir(dir)
	if err != nil {
		return nil, 0, err
	}
	valid := packs[:0]
	dropped := 0
	for _, p := range packs {
		if err := Validate(p); err != nil {
			logger.Warn("skipping invalid pack", "pack", p.Metadata.ID, "error", err)
			dropped++
			continue
		}
		valid = append(valid, p)
	}
	return valid, dropped, nil
}
