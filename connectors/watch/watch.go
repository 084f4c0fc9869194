// Package watch reruns work when an input file changes.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce collapses the burst of events an editor or exporter emits for one save.
const DefaultDebounce = 500 * time.Millisecond

// File calls onChange after each write to path until ctx is cancelled. The
// parent directory is watched so atomic renames over path are seen too. A
// failing onChange is logged and watching continues.
func File(ctx context.Context, path string, debounce time.Duration, onChange func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log.Info().Str("path", abs).Msg("watch.start")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			log.Info().Str("path", abs).Msg("watch.changed")
			if err := onChange(ctx); err != nil {
				log.Error().Err(err).Str("path", abs).Msg("watch.rerun.failed")
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watch.error")
		}
	}
}
