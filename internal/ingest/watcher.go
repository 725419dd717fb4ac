package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/monicap360/move-around-tms/constants"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // emit files already present under the roots
	Debounce    time.Duration // coalesce rapid write/rename bursts per path
}

// StartWatcher emits paths of supported files as they settle under the roots.
// Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	var initial []string
	for _, r := range cfg.Roots {
		err := filepath.WalkDir(r, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && constants.IsSupportedFile(filepath.Ext(path)) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			logger.Error("ingest.watch.add_failed", "root", r, "err", err)
			_ = w.Close()
			return nil, nil, err
		}
	}
	logger.Info("ingest.watch.started", "roots", cfg.Roots, "initial", len(initial))

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer w.Close()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		pending := map[string]time.Time{}
		tick := time.NewTicker(tickInterval(cfg.Debounce))
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("ingest.watch.add_failed", "path", e.Name, "err", err)
						}
						continue
					}
				}
				if !constants.IsSupportedFile(filepath.Ext(e.Name)) || IsHidden(e.Name) {
					continue
				}
				if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename) {
					pending[e.Name] = time.Now()
				}
			case now := <-tick.C:
				for p, last := range pending {
					if now.Sub(last) < cfg.Debounce {
						continue
					}
					delete(pending, p)
					if !emit(p) {
						return
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "err", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func tickInterval(debounce time.Duration) time.Duration {
	if debounce <= 0 {
		return 50 * time.Millisecond
	}
	if d := debounce / 4; d > 10*time.Millisecond {
		return d
	}
	return 10 * time.Millisecond
}

// Watch feeds every settled file from the watcher into IngestPath until ctx is done.
func (i *FSIngestor) Watch(ctx context.Context, cfg WatchConfig) error {
	paths, errs, err := StartWatcher(ctx, cfg, i.logger)
	if err != nil {
		return err
	}
	for {
		select {
		case p, ok := <-paths:
			if !ok {
				return ctx.Err()
			}
			if _, err := os.Stat(p); err != nil {
				// renamed away before it settled
				continue
			}
			_, _ = i.IngestPath(ctx, p)
		case _, ok := <-errs:
			// already logged by the watcher
			if !ok {
				errs = nil
			}
		}
	}
}
