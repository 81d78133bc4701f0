// Package config holds the tunables of a seed search run.
package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hack-pad/hackpadfs"

	"github.com/kittclouds/fmsearch/pkg/backend"
	"github.com/kittclouds/fmsearch/pkg/fmindex"
	"github.com/kittclouds/fmsearch/pkg/qgram"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds filter and backend parameters
type Config struct {
	Q               int    `json:"q"`
	QueryStep       int    `json:"queryStep"`
	MinIntv         uint32 `json:"minIntv"`
	MinSpan         int    `json:"minSpan"`
	MaxMEMsPerQuery int    `json:"maxMemsPerQuery"`
	MergeInterval   uint32 `json:"mergeInterval"`
	LocateWindow    int    `json:"locateWindow"`
	SampleInterval  uint32 `json:"sampleInterval"`
	Parallel        bool   `json:"parallel"`
	Workers         int    `json:"workers"`       // 0 = GOMAXPROCS
	ActiveWorkers   int    `json:"activeWorkers"` // 0 = workers
}

func DefaultConfig() Config {
	return Config{
		Q:               12,
		QueryStep:       1,
		MinIntv:         1,
		MinSpan:         20,
		MaxMEMsPerQuery: fmindex.DefaultMEMCapacity,
		MergeInterval:   16,
		LocateWindow:    1 << 16,
		SampleInterval:  16,
	}
}

// Validate rejects values the filters cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Q <= 0 || c.Q > qgram.MaxQ:
		return fmt.Errorf("config: q=%d: %w", c.Q, ErrInvalidConfig)
	case c.QueryStep <= 0:
		return fmt.Errorf("config: queryStep=%d: %w", c.QueryStep, ErrInvalidConfig)
	case c.MinIntv == 0:
		return fmt.Errorf("config: minIntv must be positive: %w", ErrInvalidConfig)
	case c.MaxMEMsPerQuery <= 0:
		return fmt.Errorf("config: maxMemsPerQuery=%d: %w", c.MaxMEMsPerQuery, ErrInvalidConfig)
	case c.MergeInterval == 0:
		return fmt.Errorf("config: mergeInterval must be positive: %w", ErrInvalidConfig)
	case c.LocateWindow <= 0:
		return fmt.Errorf("config: locateWindow=%d: %w", c.LocateWindow, ErrInvalidConfig)
	case c.SampleInterval == 0:
		return fmt.Errorf("config: sampleInterval must be positive: %w", ErrInvalidConfig)
	case c.Workers < 0 || c.ActiveWorkers < 0:
		return fmt.Errorf("config: workers=%d activeWorkers=%d: %w", c.Workers, c.ActiveWorkers, ErrInvalidConfig)
	case c.Workers > 0 && c.ActiveWorkers > c.Workers:
		return fmt.Errorf("config: activeWorkers=%d exceeds workers=%d: %w", c.ActiveWorkers, c.Workers, ErrInvalidConfig)
	}
	return nil
}

// Merge overlays the non-zero fields of each override onto c, in order.
func (c Config) Merge(overrides ...Config) Config {
	for _, o := range overrides {
		if o.Q != 0 {
			c.Q = o.Q
		}
		if o.QueryStep != 0 {
			c.QueryStep = o.QueryStep
		}
		if o.MinIntv != 0 {
			c.MinIntv = o.MinIntv
		}
		if o.MinSpan != 0 {
			c.MinSpan = o.MinSpan
		}
		if o.MaxMEMsPerQuery != 0 {
			c.MaxMEMsPerQuery = o.MaxMEMsPerQuery
		}
		if o.MergeInterval != 0 {
			c.MergeInterval = o.MergeInterval
		}
		if o.LocateWindow != 0 {
			c.LocateWindow = o.LocateWindow
		}
		if o.SampleInterval != 0 {
			c.SampleInterval = o.SampleInterval
		}
		if o.Parallel {
			c.Parallel = true
		}
		if o.Workers != 0 {
			c.Workers = o.Workers
		}
		if o.ActiveWorkers != 0 {
			c.ActiveWorkers = o.ActiveWorkers
		}
	}
	return c
}

// Load reads a JSON config from fsys and merges it over the defaults.
func Load(fsys hackpadfs.FS, path string) (Config, error) {
	data, err := hackpadfs.ReadFile(fsys, path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes JSON and merges it over the defaults.
func Parse(data []byte) (Config, error) {
	var override Config
	if err := json.Unmarshal(data, &override); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	cfg := DefaultConfig().Merge(override)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewBackend builds the configured backend. The returned func releases it.
func (c Config) NewBackend() (backend.Backend, func(), error) {
	if !c.Parallel {
		return backend.NewSequential(), func() {}, nil
	}
	p, err := backend.NewParallel(c.Workers, c.ActiveWorkers)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return p, p.Close, nil
}
