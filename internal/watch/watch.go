// Package watch keeps an ingest pass running against the screenshots
// folder: one pass at startup, then a debounced pass after each new or
// changed image. Passes are triggered from a single goroutine, so runs
// never overlap.
package watch

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/amarchal/shotbox/internal/scanner"
)

const defaultDebounce = 2 * time.Second

// Runner watches one folder and invokes run after image changes settle.
type Runner struct {
	dir      string
	run      func()
	debounce time.Duration
	logger   *zap.Logger
}

// New creates a Runner for dir.
func New(dir string, run func(), logger *zap.Logger) *Runner {
	return &Runner{
		dir:      dir,
		run:      run,
		debounce: defaultDebounce,
		logger:   logger,
	}
}

// Start runs until stop is closed. The initial pass happens before any
// events are handled.
func (r *Runner) Start(stop <-chan struct{}) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(r.dir); err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}

	r.run()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !scanner.IsImage(ev.Name) {
				continue
			}
			r.logger.Debug("screenshot event",
				zap.String("op", ev.Op.String()),
				zap.String("path", ev.Name))
			if timer == nil {
				timer = time.NewTimer(r.debounce)
				fire = timer.C
			} else {
				timer.Reset(r.debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watch error", zap.Error(err))

		case <-fire:
			timer = nil
			fire = nil
			r.run()

		case <-stop:
			if timer != nil {
				timer.Stop()
			}
			return nil
		}
	}
}
