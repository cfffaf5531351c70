package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pinningd/internal/logfields"
)

// DefaultWatchDebounce collapses bursts of registry writes into one trigger.
const DefaultWatchDebounce = 2 * time.Second

// RegistryWatcher calls onChange after the registry file has been written,
// created or renamed into place, debounced.
type RegistryWatcher struct {
	path     string
	onChange func()
	debounce time.Duration
	logger   *slog.Logger

	watcher  *fsnotify.Watcher
	trigger  chan struct{}
	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewRegistryWatcher creates a watcher for the registry file at path.
func NewRegistryWatcher(path string, debounce time.Duration, onChange func(), logger *slog.Logger) (*RegistryWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve registry path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RegistryWatcher{
		path:     absPath,
		onChange: onChange,
		debounce: debounce,
		logger:   logger,
		watcher:  w,
		trigger:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}, nil
}

// Start watches the registry's directory, which survives editors that replace
// the file instead of writing it in place.
func (rw *RegistryWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(rw.path)
	if err := rw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch registry directory %s: %w", dir, err)
	}
	rw.logger.Info("Watching project registry", logfields.Path(rw.path))

	rw.wg.Add(2)
	go rw.watchLoop(ctx)
	go rw.debounceLoop(ctx)
	return nil
}

// Stop ends the watcher and waits for its goroutines.
func (rw *RegistryWatcher) Stop() error {
	var err error
	rw.stopOnce.Do(func() {
		close(rw.stopChan)
		err = rw.watcher.Close()
		rw.wg.Wait()
	})
	return err
}

func (rw *RegistryWatcher) watchLoop(ctx context.Context) {
	defer rw.wg.Done()
	name := filepath.Base(rw.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-rw.stopChan:
			return
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				rw.logger.Debug("Registry change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
				select {
				case rw.trigger <- struct{}{}:
				default:
				}
			case event.Has(fsnotify.Remove):
				rw.logger.Warn("Registry file removed", logfields.Path(event.Name))
			}
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			rw.logger.Error("Registry watcher error", logfields.Error(err))
		}
	}
}

func (rw *RegistryWatcher) debounceLoop(ctx context.Context) {
	defer rw.wg.Done()
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-rw.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-rw.trigger:
			if timer == nil {
				timer = time.NewTimer(rw.debounce)
			} else {
				timer.Reset(rw.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			rw.onChange()
		}
	}
}
