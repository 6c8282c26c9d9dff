package config

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/lantern/engine/core"
)

// Watcher reloads the configuration file whenever it changes on disk and hands
// the new configuration to a callback. The callback runs on the watcher
// goroutine, so it must only publish data the loop reads atomically.
type Watcher struct {
	path     string
	onReload func(*Config)

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
	mutex    sync.Mutex
}

func NewWatcher(path string, onReload func(*Config)) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("config watcher needs a file path")
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors replace files on save, which drops
	// watches placed on the file itself.
	if err := fsWatch.Add(filepath.Dir(path)); err != nil {
		fsWatch.Close()
		return nil, err
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		onReload: onReload,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.start()
	return w, nil
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				core.LogWarn("config reload rejected: %s", err)
				continue
			}
			core.LogInfo("config reloaded from %s", w.path)
			if w.onReload != nil {
				w.onReload(cfg)
			}
		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("config watcher: %s", err)
		}
	}
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.isClosed {
		return nil
	}
	w.isClosed = true
	close(w.done)
	err := w.fsnotify.Close()
	w.wg.Wait()
	return err
}
