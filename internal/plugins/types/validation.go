package types

import (
	"fmt"
	"net"
	"strings"

	rnaerrors "github.com/netxfw/rna/pkg/errors"
)

var validLevels = map[string]bool{
	"":        true,
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the configuration for errors.
// Validate 检查配置是否存在错误。
func (c *GlobalConfig) Validate() error {
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging config error: %w", rnaerrors.NewConfigError("logging.level", c.Logging.Level))
	}
	if c.Logging.Enabled && c.Logging.Path == "" {
		return fmt.Errorf("logging config error: %w", rnaerrors.NewConfigError("logging.path", c.Logging.Path))
	}
	if c.Metrics.Enabled && c.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics config error: %w", rnaerrors.NewConfigError("metrics.listen", c.Metrics.Listen))
		}
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config error: %w", err)
	}
	if err := c.Rna.Validate(); err != nil {
		return fmt.Errorf("rna config error: %w", err)
	}
	return nil
}

func (c *EngineConfig) Validate() error {
	if c.Workers < 1 {
		return rnaerrors.NewConfigError("engine.workers", c.Workers)
	}
	if c.QueueSize < 0 {
		return rnaerrors.NewConfigError("engine.queue_size", c.QueueSize)
	}
	if c.ReassemblyTimeout < 0 {
		return rnaerrors.NewConfigError("engine.reassembly_timeout", c.ReassemblyTimeout)
	}
	return nil
}

// Validate rejects settings that can never work. A missing directive file is not an
// error here: the inspector falls back to defaults and warns at construction.
func (c *RnaConfig) Validate() error {
	if c.Watch && c.RnaConfPath == "" {
		return rnaerrors.NewConfigError("rna.watch", "requires rna_conf_path")
	}
	return nil
}
