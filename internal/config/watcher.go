package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/traversion/causengine/internal/logging"
)

// ReloadCallback is invoked with the newly loaded Config after the watched
// file changes. If it returns an error the reload is logged and the
// previous Config keeps running — an invalid edit never brings the engine
// down, mirroring the teacher's IntegrationWatcher.
type ReloadCallback func(Config) error

// Watcher watches a config file for changes and debounces reload callbacks
// so a burst of editor-save events collapses into a single reload.
type Watcher struct {
	path           string
	debounce       time.Duration
	callback       ReloadCallback
	logger         *logging.Logger
	cancel         context.CancelFunc
	stopped        chan struct{}
	mu             sync.Mutex
	debounceTimer  *time.Timer
}

// NewWatcher creates a watcher for the config file at path. debounce
// defaults to 500ms if zero.
func NewWatcher(path string, debounce time.Duration, callback ReloadCallback) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		callback: callback,
		logger:   logging.GetLogger("config.watcher"),
		stopped:  make(chan struct{}),
	}
}

// Start loads the file once, invokes the callback, then watches for
// changes in the background until the context is cancelled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	initial, err := Load(w.path)
	if err != nil {
		return err
	}
	if err := w.callback(initial); err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.watchLoop(watchCtx)
	return nil
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("config watcher: failed to start fsnotify: %v", err)
		return
	}
	defer fsw.Close()

	if err := fsw.Add(w.path); err != nil {
		w.logger.Error("config watcher: failed to watch %s: %v", w.path, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher: fsnotify error: %v", err)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config watcher: reload failed, keeping previous config: %v", err)
		return
	}
	if err := w.callback(cfg); err != nil {
		w.logger.Warn("config watcher: reload callback failed: %v", err)
	}
}
