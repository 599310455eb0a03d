package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file whenever it changes on disk.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*Config)
	logger   *zap.Logger
	started  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
}

// NewWatcher watches the directory containing path, since editors often
// replace a file instead of writing it in place.
func NewWatcher(path string, onChange func(*Config), logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching config directory: %w", err)
	}
	return &Watcher{
		path:     filepath.Clean(path),
		watcher:  fw,
		onChange: onChange,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start processes file events in a background goroutine until ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	if w.started.CompareAndSwap(false, true) {
		go w.run(ctx)
	}
}

// Stop ends the watch loop and waits for it to exit. Safe to call twice.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
	if w.started.Load() {
		<-w.done
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

// reload keeps the previous settings when the new file does not validate.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("ignoring invalid config change", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("config reloaded", zap.String("path", w.path))
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
