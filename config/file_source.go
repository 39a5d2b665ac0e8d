package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/cihub/seelog"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v2"
)

// FileSource serves tunables from a YAML settings file. The file is only read
// again after fsnotify reports a change to it.
type FileSource struct {
	path string
	base Tunables

	watcher *fsnotify.Watcher
	done    chan struct{}

	mu    sync.Mutex
	dirty bool
	last  Tunables
	err   error
}

// NewFileSource returns a FileSource reading path. Keys missing from the file
// take their value from base.
func NewFileSource(path string, base Tunables) (*FileSource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// watch the directory so that editors replacing the file are noticed
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	s := &FileSource{
		path:    path,
		base:    base,
		watcher: w,
		done:    make(chan struct{}),
		dirty:   true,
	}
	go s.watch()
	return s, nil
}

func (s *FileSource) watch() {
	target := filepath.Clean(s.path)
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == target {
				s.mu.Lock()
				s.dirty = true
				s.mu.Unlock()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("settings file watcher: %v", err)
		case <-s.done:
			return
		}
	}
}

// Fetch implements SettingsSource.
func (s *FileSource) Fetch(context.Context) (Tunables, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return s.last, s.err
	}
	s.dirty = false
	s.last, s.err = s.read()
	return s.last, s.err
}

func (s *FileSource) read() (Tunables, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return s.base, err
	}
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return s.base, fmt.Errorf("parse error: %s", err)
	}
	return decodeTunables(s.base, raw)
}

// Close stops watching the file.
func (s *FileSource) Close() error {
	close(s.done)
	return s.watcher.Close()
}
