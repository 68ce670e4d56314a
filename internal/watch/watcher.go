// Package watch re-pushes settings while they are being edited: it watches
// the settings directory and invokes a push callback once writes settle.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Stats tracks watcher activity for status output and tests.
type Stats struct {
	Events        int
	Triggers      int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// Watcher debounces file events on the settings files and calls onChange
// after a quiet period. onChange failures (an invalid registry, a push that
// could not reach Chrome) are logged and counted; watching continues.
type Watcher struct {
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	dir      string
	files    map[string]bool
	log      *zap.Logger
	debounce time.Duration
	onChange func(context.Context) error
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	stats    Stats
}

// New creates a watcher over dir. Only events on the named files trigger
// onChange; editor temp files and unrelated writes are ignored.
func New(dir string, files []string, debounce time.Duration, log *zap.Logger, onChange func(context.Context) error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	watched := make(map[string]bool, len(files))
	for _, f := range files {
		watched[f] = true
	}

	return &Watcher{
		watcher:  fsw,
		dir:      dir,
		files:    watched,
		log:      log,
		debounce: debounce,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the loop runs until Stop or ctx
// cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	w.log.Info("Watching settings directory", zap.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

// Stop shuts the loop down and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// The timer is armed on the first relevant event and reset on each
	// further one, so a save burst produces a single trigger.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			w.log.Warn("Watcher error", zap.Error(err))
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.mu.Lock()
			w.stats.Events++
			w.stats.LastEventPath = ev.Name
			w.stats.LastEventTime = time.Now()
			w.mu.Unlock()

			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			armed = true
		case <-timer.C:
			armed = false
			w.mu.Lock()
			w.stats.Triggers++
			w.mu.Unlock()

			if err := w.onChange(ctx); err != nil {
				w.mu.Lock()
				w.stats.Errors++
				w.mu.Unlock()
				w.log.Warn("Change handler failed; still watching", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return w.files[filepath.Base(ev.Name)]
}
