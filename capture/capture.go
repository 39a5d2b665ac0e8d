// Package capture drives the runtime execution tracer and instruments the
// operations whose samples are later validated against the trace.
package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"

	log "github.com/cihub/seelog"
	"github.com/google/uuid"
)

// ErrCaptureFailure is wrapped by every error starting or stopping a capture.
var ErrCaptureFailure = errors.New("capture failure")

// Session is one capture, from Start to Stop.
type Session struct {
	ID      string
	Path    string
	Started time.Time

	file *os.File
}

// Capturer starts and stops captures. At most one session is active at a time.
type Capturer interface {
	Start(path string) (*Session, error)
	Stop(s *Session) error
}

// TracePath returns a fresh path for a trace file in dir.
func TracePath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("trace-%s-%s.out", now.UTC().Format("20060102T150405"), uuid.NewString()[:8]))
}

// RuntimeTracer captures with runtime/trace. The Go runtime only supports one
// tracer per process, so Start fails while any trace is running, including one
// not started here.
type RuntimeTracer struct {
	mu     sync.Mutex
	active *Session
}

// NewRuntimeTracer returns a RuntimeTracer.
func NewRuntimeTracer() *RuntimeTracer {
	return &RuntimeTracer{}
}

// Start implements Capturer.
func (rt *RuntimeTracer) Start(path string) (*Session, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.active != nil {
		return nil, fmt.Errorf("%w: session %s already active", ErrCaptureFailure, rt.active.ID)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailure, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailure, err)
	}
	if err := trace.Start(f); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailure, err)
	}
	s := &Session{ID: uuid.NewString(), Path: path, Started: time.Now(), file: f}
	rt.active = s
	log.Debugf("capture %s started, writing to %s", s.ID, path)
	return s, nil
}

// Stop implements Capturer. The trace file is complete once Stop returns.
func (rt *RuntimeTracer) Stop(s *Session) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if s == nil || rt.active != s {
		return fmt.Errorf("%w: session is not active", ErrCaptureFailure)
	}
	trace.Stop()
	rt.active = nil
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrCaptureFailure, err)
	}
	log.Debugf("capture %s stopped after %s", s.ID, time.Since(s.Started))
	return nil
}

// Active returns the active session, if any.
func (rt *RuntimeTracer) Active() *Session {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.active
}
