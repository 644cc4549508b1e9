package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
)

// Stamp identifies a version of the watched file.
type Stamp struct {
	ModTime time.Time
	Size    int64
}

func stat(path string) (Stamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Stamp{}, err
	}
	if !fi.Mode().IsRegular() {
		return Stamp{}, fmt.Errorf("%s is not a regular file", path)
	}
	return Stamp{ModTime: fi.ModTime(), Size: fi.Size()}, nil
}

// Watcher reports whether a file changed since the last committed stamp.
// Changed never commits; a caller that failed to use the new version simply
// does not Commit and sees the change again on the next call.
type Watcher interface {
	Changed() (Stamp, bool, error)
	Commit(Stamp)
	Close() error
}

// StatWatcher compares the file's modification time and size on every call.
type StatWatcher struct {
	path string
	last Stamp
}

// NewStatWatcher watches path by polling.
func NewStatWatcher(path string) *StatWatcher {
	return &StatWatcher{path: path}
}

// Changed implements Watcher.
func (w *StatWatcher) Changed() (Stamp, bool, error) {
	s, err := stat(w.path)
	if err != nil {
		return Stamp{}, false, err
	}
	return s, s != w.last, nil
}

// Commit implements Watcher.
func (w *StatWatcher) Commit(s Stamp) { w.last = s }

// Close implements Watcher.
func (w *StatWatcher) Close() error { return nil }

// NotifyWatcher learns about changes from file system events on the parent
// directory, so it also follows editors that save by renaming a new file over
// the old one. It only stats the file after an event.
type NotifyWatcher struct {
	path    string
	fsw     *fsnotify.Watcher
	dirty   atomic.Bool
	pending bool
	done    chan struct{}
}

// NewNotifyWatcher starts watching path.
func NewNotifyWatcher(path string) (*NotifyWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w := &NotifyWatcher{
		path:    abs,
		fsw:     fsw,
		pending: true,
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *NotifyWatcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			glog.V(2).Infof("shader: %s", ev)
			w.dirty.Store(true)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			glog.Warningf("shader: watch %s: %v", w.path, err)
			// events may have been lost
			w.dirty.Store(true)
		}
	}
}

// Changed implements Watcher. Once an event was seen the file counts as
// changed until a stamp is committed.
func (w *NotifyWatcher) Changed() (Stamp, bool, error) {
	if w.dirty.Swap(false) {
		w.pending = true
	}
	if !w.pending {
		return Stamp{}, false, nil
	}
	s, err := stat(w.path)
	if err != nil {
		return Stamp{}, false, err
	}
	return s, true, nil
}

// Commit implements Watcher.
func (w *NotifyWatcher) Commit(Stamp) { w.pending = false }

// Close stops watching.
func (w *NotifyWatcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
