package dataflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuntimeConfigLossyPolicy(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	assert.Equal(t, QueueLossy, cfg.Switchboard.Policy())
	assert.Equal(t, defaultQueueBound, cfg.Switchboard.QueueBound)
}

func TestLoadRuntimeConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.toml")
	contents := `
[switchboard]
queue_bound = 64
default_policy = "lossless"

[threadloop]
yield_millis = 5
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadRuntimeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Switchboard.QueueBound)
	assert.Equal(t, QueueLossless, cfg.Switchboard.Policy())
	assert.Equal(t, 5, cfg.Threadloop.YieldMillis)
}

func TestLoadRuntimeConfigMissingFileReturnsError(t *testing.T) {
	_, err := LoadRuntimeConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
