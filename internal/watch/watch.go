// Package watch triggers a refresh whenever the stored records or the
// configuration change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultInterval is the delay between a change and its refresh.
const DefaultInterval = time.Second

// Watcher calls OnChange Interval after the first change under the watched
// paths. Further changes in that window, such as a temp file followed by a
// rename, are folded into the same call.
type Watcher struct {
	Paths    []string
	Interval time.Duration
	OnChange func()
	Log      *zap.SugaredLogger
}

// Run blocks until ctx is cancelled. Directories are watched recursively and
// directories created later are added as they appear. A file is watched
// through its parent directory, so replacing it by rename is still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	set := &watchSet{fw: fw, dirs: map[string]bool{}, files: map[string]map[string]bool{}}
	for _, p := range w.Paths {
		if err := set.add(p); err != nil {
			return err
		}
	}

	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-pending:
			pending = nil
			w.OnChange()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !set.relevant(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := set.addTree(event.Name); err != nil {
						w.Log.Warnw("watching new directory", "path", event.Name, "error", err)
					}
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			w.Log.Debugw("change detected", "path", event.Name, "op", event.Op.String())
			if pending == nil {
				pending = time.After(interval)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Log.Warnw("watcher error", "error", err)
		}
	}
}

// watchSet tracks which directories are watched whole and which only for
// some of their files.
type watchSet struct {
	fw    *fsnotify.Watcher
	dirs  map[string]bool
	files map[string]map[string]bool
}

func (s *watchSet) add(root string) error {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	if info.IsDir() {
		return s.addTree(root)
	}

	dir := filepath.Dir(root)
	if s.dirs[dir] {
		return nil
	}
	if s.files[dir] == nil {
		if err := s.fw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		s.files[dir] = map[string]bool{}
	}
	s.files[dir][root] = true
	return nil
}

func (s *watchSet) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		path = filepath.Clean(path)
		if _, ok := s.files[path]; !ok {
			if err := s.fw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		delete(s.files, path)
		s.dirs[path] = true
		return nil
	})
}

// relevant drops events for siblings of a watched file.
func (s *watchSet) relevant(name string) bool {
	name = filepath.Clean(name)
	dir := filepath.Dir(name)
	if s.dirs[dir] {
		return true
	}
	return s.files[dir][name]
}
