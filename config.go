package dataflow

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// RuntimeConfig holds the ambient tuning knobs for the dataflow core: queue
// sizes, timing constants, and delivery policy defaults. This is
// deliberately separate from plugin-specific device/SLAM configuration,
// which this core never loads — that remains each plugin's own concern.
type RuntimeConfig struct {
	Switchboard SwitchboardConfig `toml:"switchboard"`
	Threadloop  ThreadloopConfig  `toml:"threadloop"`
}

// SwitchboardConfig tunes the event bus.
type SwitchboardConfig struct {
	// QueueBound overrides defaultQueueBound when non-zero.
	QueueBound int `toml:"queue_bound"`
	// DefaultPolicy is "lossy" or "lossless"; empty means lossy.
	DefaultPolicy string `toml:"default_policy"`
}

// ThreadloopConfig tunes threadloop timing.
type ThreadloopConfig struct {
	// YieldMillis overrides the SkipAndYield sleep duration when non-zero.
	YieldMillis int `toml:"yield_millis"`
}

// DefaultRuntimeConfig returns the config used when no file is loaded.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Switchboard: SwitchboardConfig{
			QueueBound:    defaultQueueBound,
			DefaultPolicy: "lossy",
		},
		Threadloop: ThreadloopConfig{
			YieldMillis: int(yieldDuration / time.Millisecond),
		},
	}
}

// LoadRuntimeConfig reads a TOML runtime-tuning file at path, filling in
// DefaultRuntimeConfig for anything the file omits.
func LoadRuntimeConfig(path string) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load runtime config %q: %w", path, err)
	}
	return cfg, nil
}

// Policy translates the configured default policy string to a QueuePolicy.
func (c SwitchboardConfig) Policy() QueuePolicy {
	if c.DefaultPolicy == "lossless" {
		return QueueLossless
	}
	return QueueLossy
}
