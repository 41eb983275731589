package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrNothingToWatch is returned when none of the watched files has an
// existing parent directory.
var ErrNothingToWatch = errors.New("no watchable directories")

// Watcher calls onChange after any of a fixed set of files is written,
// created, removed or renamed. Bursts of events within the debounce interval
// produce a single call.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	files    map[string]struct{}
	debounce time.Duration
	onChange func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches the parent directories of paths. Files need not exist
// yet; creating one later triggers onChange.
func NewWatcher(paths []string, debounce time.Duration, logger *zap.Logger, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		logger:   logger,
		files:    make(map[string]struct{}, len(paths)),
		debounce: debounce,
		onChange: onChange,
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, seen := dirs[dir]; seen {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logger.Warn("skipping missing directory", zap.String("dir", dir))
			continue
		}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = struct{}{}
	}

	if len(dirs) == 0 {
		_ = fsw.Close()
		return nil, ErrNothingToWatch
	}
	return w, nil
}

// Run processes events until ctx is cancelled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		_ = w.watcher.Close()
	}()

	w.logger.Info("watching configuration files", zap.Int("files", len(w.files)))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("configuration file changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()),
			)
			w.trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.files[filepath.Clean(event.Name)]
	return ok
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}
