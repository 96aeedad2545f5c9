package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// debounceReload absorbs the burst of Write events editors tend to emit for
// a single logical save.
var debounceReload = 150 * time.Millisecond

// FileWatcher watches a single file (the green-wave intersection catalog or
// a fixture feed file) and invokes onChange whenever its contents change.
type FileWatcher struct {
	path     string
	onChange func(path string) error
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	stopped bool
}

// WatchFile starts watching path, calling onChange once immediately and
// again on every subsequent write. The caller must call Stop to release the
// underlying fsnotify watcher.
func WatchFile(path string, onChange func(path string) error) (*FileWatcher, error) {
	if err := onChange(path); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	fw := &FileWatcher{path: path, onChange: onChange, watcher: w}
	go fw.run()
	return fw, nil
}

func (fw *FileWatcher) run() {
	var debounce *time.Timer
	for {
		select {
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceReload, func() {
				if err := fw.onChange(fw.path); err != nil {
					log.Error().Err(err).Str("path", fw.path).Msg("failed to reload watched file")
				}
			})
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Str("path", fw.path).Msg("file watcher error")
		}
	}
}

// Stop releases the underlying fsnotify watcher. Safe to call more than once.
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.stopped {
		return
	}
	fw.stopped = true
	fw.watcher.Close()
}
