// Package uploader hands validated traces off to the process uploading them.
// The upload itself happens elsewhere: this package only spools the trace and
// its manifest into a directory the uploader watches.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/cihub/seelog"
	lru "github.com/hashicorp/golang-lru"

	"github.com/DataDog/datadog-profiling-agent/metrics"
	"github.com/DataDog/datadog-profiling-agent/sampler"
)

// ManifestExt is appended to the trace path to name its manifest.
const ManifestExt = ".manifest"

// ErrDuplicate is returned when a trace was already submitted.
var ErrDuplicate = errors.New("trace already submitted")

// Artifact is a trace ready to be uploaded.
type Artifact struct {
	TracePath string
	Samples   []sampler.SampleObservation
	Valid     bool
	Created   time.Time
}

// Handoff receives artifacts.
type Handoff interface {
	Submit(ctx context.Context, a Artifact) error
}

// DirectoryHandoff moves traces into a spool directory and writes their
// manifest next to them. It remembers the most recently submitted paths and
// refuses to submit them twice.
type DirectoryHandoff struct {
	dir   string
	seen  *lru.Cache
	stats metrics.StatsClient
}

// NewDirectoryHandoff returns a handoff spooling into dir, remembering up to
// cacheSize submitted traces.
func NewDirectoryHandoff(dir string, cacheSize int, stats metrics.StatsClient) (*DirectoryHandoff, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	seen, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirectoryHandoff{dir: dir, seen: seen, stats: metrics.OrNoop(stats)}, nil
}

// Dir returns the spool directory.
func (h *DirectoryHandoff) Dir() string { return h.dir }

// Submit implements Handoff.
func (h *DirectoryHandoff) Submit(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.Created.IsZero() {
		a.Created = time.Now()
	}
	src := a.TracePath
	if ok, _ := h.seen.ContainsOrAdd(src, a.Created); ok {
		log.Debugf("trace %s already submitted", src)
		return ErrDuplicate
	}

	dst := filepath.Join(h.dir, filepath.Base(a.TracePath))
	if dst != filepath.Clean(src) {
		if err := os.Rename(src, dst); err != nil {
			h.seen.Remove(src)
			return fmt.Errorf("cannot spool trace: %w", err)
		}
		a.TracePath = dst
	}
	if err := WriteManifest(a.TracePath+ManifestExt, NewManifest(a)); err != nil {
		h.seen.Remove(src)
		return err
	}

	log.Infof("handed off %s with %d samples", a.TracePath, len(a.Samples))
	h.stats.Count("datadog.profiling.handoff.submitted", 1, nil, 1)
	h.stats.Histogram("datadog.profiling.handoff.samples", float64(len(a.Samples)), nil, 1)
	return nil
}

// WriteManifest writes m to path, replacing any existing file only once the
// new one is complete.
func WriteManifest(path string, m *Manifest) error {
	b, err := m.MarshalMsg(nil)
	if err != nil {
		return fmt.Errorf("cannot encode manifest: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if _, err := m.UnmarshalMsg(b); err != nil {
		return nil, fmt.Errorf("cannot decode manifest %s: %w", path, err)
	}
	return m, nil
}
