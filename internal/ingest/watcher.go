package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid write/rename bursts
	Logger      *slog.Logger
}

// StartWatcher emits paths of allowed files created, written or renamed under
// the roots. A path is emitted once per quiet period of cfg.Debounce.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		log.Error("watcher.start.failed", "error", "no roots provided")
		return nil, nil, errors.New("no roots provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("watcher.create.failed", "error", err)
		return nil, nil, err
	}

	var initial []string
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && IsHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && AllowedExt(filepath.Ext(path)) && !IsHidden(path) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			log.Error("watcher.add_root.failed", "root", root, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				log.Warn("watcher.close.failed", "error", err)
			}
		}()

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

		pending := map[string]struct{}{}
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		flush := func() bool {
			for p := range pending {
				delete(pending, p)
				if !emit(p) {
					return false
				}
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create == fsnotify.Create && !IsHidden(e.Name) {
					// new subdirectories are watched too; Add fails harmlessly for files
					_ = w.Add(e.Name)
				}
				if IsHidden(e.Name) || !AllowedExt(filepath.Ext(e.Name)) {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					if !flush() {
						return
					}
					continue
				}
				timer.Reset(cfg.Debounce)
			case <-timer.C:
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error("watcher.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// Watch ingests every path the watcher emits until ctx ends.
func Watch(ctx context.Context, in *Ingestor, cfg WatchConfig) error {
	events, errs, err := StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	in.logger.Info("watcher.started", "roots", cfg.Roots, "debounce", cfg.Debounce)
	for {
		select {
		case p, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if _, err := in.IngestPath(ctx, p); err != nil {
				in.logger.Warn("watcher.ingest.failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				in.logger.Warn("watcher.degraded", "error", err)
			}
			if !ok {
				errs = nil
			}
		}
	}
}
