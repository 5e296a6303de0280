package server

import (
	"github.com/fsnotify/fsnotify"

	"github.com/madc/lnk/internal/log"
)

// Watcher observes the assets directory and invokes onChange whenever a
// file is written, created, removed or renamed. The serve command pairs
// it with CachedFetcher.Purge so a cached registry never outlives an
// edit to the file on disk.
type Watcher struct {
	fw       *fsnotify.Watcher
	onChange func(name string)
	done     chan struct{}
}

// NewWatcher starts watching dir. Close must be called to release the
// underlying OS watches.
func NewWatcher(dir string, onChange func(name string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{fw: fw, onChange: onChange, done: make(chan struct{})}
	go w.loop()

	log.Info(log.CatWatcher, "watching assets directory", "dir", dir)
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				log.Debug(log.CatWatcher, "assets changed", "file", ev.Name, "op", ev.Op.String())
				if w.onChange != nil {
					w.onChange(ev.Name)
				}
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watcher error", err)
		}
	}
}

// Close stops the watcher and waits for the event loop to drain.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}
