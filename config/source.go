package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	log "github.com/cihub/seelog"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// ErrNoSettings is returned by sources which have nothing to serve yet.
var ErrNoSettings = errors.New("no settings available")

// SettingsSource supplies the tunables. Sources are polled by the scheduling
// policies on every refresh tick.
type SettingsSource interface {
	Fetch(ctx context.Context) (Tunables, error)
}

// StaticSource always returns the same tunables.
type StaticSource Tunables

// Fetch implements SettingsSource.
func (s StaticSource) Fetch(context.Context) (Tunables, error) {
	return Tunables(s), nil
}

// cachedSource is implemented by sources keeping a last-known-good copy.
type cachedSource interface {
	Cached() (Tunables, bool)
}

// InitialTunables asks src for the tunables to start with. When it fails, the
// copy cached by src is used, then fallback.
func InitialTunables(ctx context.Context, src SettingsSource, fallback Tunables) Tunables {
	if src == nil {
		return fallback
	}
	t, err := src.Fetch(ctx)
	if err == nil {
		return t
	}
	if cs, ok := src.(cachedSource); ok {
		if t, ok := cs.Cached(); ok {
			log.Warnf("settings unavailable (%v), starting from cached settings", err)
			return t
		}
	}
	log.Warnf("settings unavailable (%v), starting from configured defaults", err)
	return fallback
}

// settingsDocument mirrors the keys accepted from settings files and endpoints.
type settingsDocument struct {
	Enabled         bool          `mapstructure:"enabled"`
	PolicyEnabled   bool          `mapstructure:"policy_enabled"`
	CaptureDuration time.Duration `mapstructure:"capture_duration"`
	Cooldown        time.Duration `mapstructure:"cooldown"`
	PollingInterval time.Duration `mapstructure:"polling_interval"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Threshold       float64       `mapstructure:"threshold"`
}

// castHook converts loosely typed values: numbers given for durations are
// seconds, whether sent as numbers or as strings without a unit. Strings with
// a unit go through cast.
func castHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	switch to {
	case reflect.TypeOf(time.Duration(0)):
		if from.Kind() == reflect.String {
			s := strings.TrimSpace(cast.ToString(data))
			if secs, err := strconv.ParseFloat(s, 64); err == nil {
				return GetDuration(secs), nil
			}
			return cast.ToDurationE(s)
		}
		secs, err := cast.ToFloat64E(data)
		if err != nil {
			return nil, err
		}
		return GetDuration(secs), nil
	case reflect.TypeOf(float64(0)):
		return cast.ToFloat64E(data)
	case reflect.TypeOf(true):
		return cast.ToBoolE(data)
	}
	return data, nil
}

// decodeTunables overlays the raw settings onto base. Keys absent from raw
// keep the value of base.
func decodeTunables(base Tunables, raw map[string]interface{}) (Tunables, error) {
	doc := settingsDocument(base)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       castHook,
		Result:           &doc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return base, err
	}
	if err := dec.Decode(raw); err != nil {
		return base, fmt.Errorf("invalid settings: %w", err)
	}
	t := Tunables(doc)
	if err := t.Validate(); err != nil {
		return base, fmt.Errorf("invalid settings: %w", err)
	}
	return t, nil
}
