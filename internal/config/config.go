// Package config loads shamapd's runtime settings: where the node
// store lives, which backend and compression it uses, and the logging
// verbosity requested on the command line.
package config

import "github.com/LeJamon/shamapd/internal/nodestore"

// Config is the top-level, fully-resolved configuration for a shamapd
// process.
type Config struct {
	Store   nodestore.Config `mapstructure:"store"`
	Debug   bool             `mapstructure:"debug"`
	Verbose bool             `mapstructure:"verbose"`
	Quiet   bool             `mapstructure:"quiet"`

	configPath string
}

// ConfigPath reports the file this Config was loaded from, if any.
func (c *Config) ConfigPath() string { return c.configPath }

// Validate checks the whole configuration for internal consistency.
func (c *Config) Validate() error {
	return c.Store.Validate()
}
