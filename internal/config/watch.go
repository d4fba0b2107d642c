package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/BDubz420/DubzRP/internal/logger"
)

// reloadDebounce is how long the file must stay quiet before it is reloaded.
const reloadDebounce = 100 * time.Millisecond

// Watcher reloads a config file when it changes on disk. Reloaded configs
// are delivered on Updates; invalid files are logged and skipped.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	Updates chan *Config
	closeCh chan struct{}
	once    sync.Once
}

// Watch starts watching path. The directory is watched rather than the file
// so editors that replace the file on save are still seen.
func Watch(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		watcher: fw,
		Updates: make(chan *Config, 1),
		closeCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	log := logger.Named("config")
	var settle <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			settle = time.After(reloadDebounce)
		case <-settle:
			settle = nil
			cfg, err := LoadFile(w.path)
			if err != nil {
				log.Warn("config reload rejected", zap.String("path", w.path), zap.Error(err))
				continue
			}
			select { // latest wins
			case <-w.Updates:
			default:
			}
			w.Updates <- cfg
			log.Info("config reloaded", zap.String("path", w.path))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", zap.Error(err))
		case <-w.closeCh:
			return
		}
	}
}
