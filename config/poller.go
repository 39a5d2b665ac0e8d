package config

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	log "github.com/cihub/seelog"
)

const defaultPollTimeout = 10 * time.Second

// serverSettings is the payload served by the settings endpoint.
type serverSettings struct {
	ModifyIndex int64                  `json:"modify_index"`
	Settings    map[string]interface{} `json:"settings"`
}

// persistedSettings is what HTTPSource writes to its cache file.
type persistedSettings struct {
	ModifyIndex int64
	Tunables    Tunables
}

// HTTPSource polls a settings endpoint. The endpoint is told the last index
// seen and answers 304 when nothing changed. The last settings received are
// persisted so a restarted agent can use them while the endpoint is down.
type HTTPSource struct {
	endpoint    string
	apiKey      string
	persistPath string
	client      *http.Client
	base        Tunables

	mu     sync.Mutex
	index  int64
	last   Tunables
	loaded bool
}

// NewHTTPSource returns a source polling endpoint. Keys missing from the
// payload take their value from base. An empty persistPath disables the cache.
func NewHTTPSource(endpoint, apiKey, persistPath string, base Tunables) *HTTPSource {
	s := &HTTPSource{
		endpoint:    endpoint,
		apiKey:      apiKey,
		persistPath: persistPath,
		client:      &http.Client{Timeout: defaultPollTimeout},
		base:        base,
	}
	// retrieve cached settings on first boot
	if persistPath != "" {
		if ps, err := readPersistedSettings(persistPath); err != nil {
			log.Debugf("no cached settings at %v: %v", persistPath, err)
		} else {
			s.index = ps.ModifyIndex
			s.last = ps.Tunables
			s.loaded = true
		}
	}
	return s
}

// Cached returns the last settings received or restored from disk.
func (s *HTTPSource) Cached() (Tunables, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.loaded
}

// Fetch implements SettingsSource.
func (s *HTTPSource) Fetch(ctx context.Context) (Tunables, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return s.last, err
	}
	req.Header.Set("DD-Api-Key", s.apiKey)
	req.Header.Set("DD-Config-Modify-Index", strconv.FormatInt(s.index, 10))

	resp, err := s.client.Do(req)
	if err != nil {
		return s.last, fmt.Errorf("failed to retrieve settings: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		if !s.loaded {
			return s.last, ErrNoSettings
		}
		return s.last, nil
	default:
		return s.last, fmt.Errorf("settings endpoint returned %d", resp.StatusCode)
	}

	var payload serverSettings
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return s.last, fmt.Errorf("failed to decode settings: %w", err)
	}
	t, err := decodeTunables(s.base, payload.Settings)
	if err != nil {
		return s.last, err
	}

	s.index = payload.ModifyIndex
	s.last = t
	s.loaded = true
	if err := s.persist(); err != nil {
		log.Warnf("failed to persist settings to %v: %v", s.persistPath, err)
	}
	return t, nil
}

func (s *HTTPSource) persist() error {
	if s.persistPath == "" {
		return nil
	}
	f, err := os.Create(s.persistPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(persistedSettings{ModifyIndex: s.index, Tunables: s.last})
}

func readPersistedSettings(path string) (*persistedSettings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ps persistedSettings
	if err := gob.NewDecoder(f).Decode(&ps); err != nil {
		return nil, err
	}
	return &ps, nil
}
