package localstore

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"studytrack/internal/logger"
)

const debounceInterval = 150 * time.Millisecond

// Watcher signals when files next to path change, so a process can notice
// another process writing the same store. Signals are debounced and coalesced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	base     string
	changes  chan struct{}
	stopChan chan struct{}
	once     sync.Once
	mu       sync.Mutex
	debounce *time.Timer
}

// Watch starts watching the directory containing path. Events for path and
// its sqlite sidecar files (-wal, -shm, -journal) are reported.
func Watch(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		base:     filepath.Base(path),
		changes:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers one value per burst of writes.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0 {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("store watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	switch filepath.Base(name) {
	case w.base, w.base + "-wal", w.base + "-shm", w.base + "-journal":
		return true
	}
	return false
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(debounceInterval, func() {
		select {
		case w.changes <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stopChan)
		w.mu.Lock()
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
