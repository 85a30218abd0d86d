package registry

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long a path must stay quiet before its change is delivered.
const settle = 100 * time.Millisecond

// Change is a debounced filesystem event for a tileset file.
type Change struct {
	Path    string
	Removed bool
}

// Watcher reports tileset changes under a set of directory trees. Editors
// often save in several writes; only the last event of a burst is delivered.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan Change
	Errors  chan error
	fire    chan Change
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := addTree(w, dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan Change, 16),
		Errors:  make(chan error, 1),
		fire:    make(chan Change, 16),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// addTree watches root and every directory below it.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(w.watcher, event.Name); err != nil && !w.report(err) {
						return
					}
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isTilesetFile(event.Name) {
				continue
			}
			change := Change{
				Path:    event.Name,
				Removed: event.Op&(fsnotify.Remove|fsnotify.Rename) != 0,
			}
			if t, ok := timers[event.Name]; ok {
				t.Stop()
			}
			timers[event.Name] = time.AfterFunc(settle, func() {
				select {
				case w.fire <- change:
				case <-w.closeCh:
				}
			})
		case change := <-w.fire:
			select {
			case w.Events <- change:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if !w.report(err) {
				return
			}
		case <-w.closeCh:
			return
		}
	}
}

// report forwards err and returns false once the watcher is closing.
func (w *Watcher) report(err error) bool {
	select {
	case w.Errors <- err:
		return true
	case <-w.closeCh:
		return false
	}
}

func isTilesetFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".tsx"
}
