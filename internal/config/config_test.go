package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	osfs "github.com/hack-pad/hackpadfs/os"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1024, cfg.MaxMEMsPerQuery)
	assert.False(t, cfg.Parallel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ZeroQ", func(c *Config) { c.Q = 0 }},
		{"HugeQ", func(c *Config) { c.Q = 40 }},
		{"ZeroStep", func(c *Config) { c.QueryStep = 0 }},
		{"ZeroMinIntv", func(c *Config) { c.MinIntv = 0 }},
		{"ZeroMEMCap", func(c *Config) { c.MaxMEMsPerQuery = 0 }},
		{"ZeroInterval", func(c *Config) { c.MergeInterval = 0 }},
		{"ZeroWindow", func(c *Config) { c.LocateWindow = 0 }},
		{"ZeroSampling", func(c *Config) { c.SampleInterval = 0 }},
		{"NegativeWorkers", func(c *Config) { c.Workers = -1 }},
		{"TooManyActive", func(c *Config) { c.Workers, c.ActiveWorkers = 2, 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestMerge(t *testing.T) {
	cfg := DefaultConfig().Merge(Config{MaxMEMsPerQuery: 8}, Config{Q: 5, Parallel: true})
	assert.Equal(t, 8, cfg.MaxMEMsPerQuery)
	assert.Equal(t, 5, cfg.Q)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, DefaultConfig().MergeInterval, cfg.MergeInterval)
}

func TestLoad(t *testing.T) {
	fs, err := mem.NewFS()
	require.NoError(t, err)

	require.NoError(t, hackpadfs.WriteFullFile(fs, "run.json", []byte(`{"q": 8, "maxMemsPerQuery": 64, "parallel": true, "workers": 2, "activeWorkers": 1}`), 0644))
	cfg, err := Load(fs, "run.json")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Q)
	assert.Equal(t, 64, cfg.MaxMEMsPerQuery)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 1, cfg.ActiveWorkers)
	assert.Equal(t, DefaultConfig().MinSpan, cfg.MinSpan)

	b, release, err := cfg.NewBackend()
	require.NoError(t, err)
	defer release()
	assert.Equal(t, "parallel", b.Name())

	require.NoError(t, hackpadfs.WriteFullFile(fs, "bad.json", []byte(`{"q": -3}`), 0644))
	_, err = Load(fs, "bad.json")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	require.NoError(t, hackpadfs.WriteFullFile(fs, "junk.json", []byte(`{`), 0644))
	_, err = Load(fs, "junk.json")
	assert.Error(t, err)

	_, err = Load(fs, "missing.json")
	assert.Error(t, err)
}

func TestLoadFromHost(t *testing.T) {
	osPath := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(osPath, []byte(`{"minSpan": 31, "locateWindow": 512}`), 0644))

	host := osfs.NewFS()
	path, err := host.FromOSPath(osPath)
	require.NoError(t, err)
	cfg, err := Load(host, path)
	require.NoError(t, err)
	assert.Equal(t, 31, cfg.MinSpan)
	assert.Equal(t, 512, cfg.LocateWindow)
	assert.Equal(t, DefaultConfig().Q, cfg.Q)
}
