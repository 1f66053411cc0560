package engine

import (
	"errors"
	"time"
)

// EngineConfig contains configuration for the evaluation engine.
type EngineConfig struct {
	// CommonKeys are the root children evaluated once per flat evaluation and
	// merged into every record. The first present key wins.
	// Default: ["common", "standard"].
	CommonKeys []string

	// CommonPrefix is prepended to every common field name.
	// Default: "common_".
	CommonPrefix string

	// RecurseItem applies the schema of a list's "item" node to each
	// element. When false, elements are appended as resolved.
	// Default: true.
	RecurseItem bool

	// Timeout bounds one top-level evaluation. Zero means no limit.
	Timeout time.Duration
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		CommonKeys:   []string{"common", "standard"},
		CommonPrefix: "common_",
		RecurseItem:  true,
	}
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	for _, key := range c.CommonKeys {
		if key == "" {
			return errors.New("common keys cannot contain an empty name")
		}
	}
	return nil
}
