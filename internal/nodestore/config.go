package nodestore

import (
	"errors"
	"fmt"
	"time"

	"github.com/LeJamon/shamapd/internal/nodestore/compression"
)

// Config holds the settings for a nodestore Backend plus its wrapping
// read-through cache.
type Config struct {
	Backend string `mapstructure:"backend" toml:"backend"`
	Path    string `mapstructure:"path" toml:"path"`

	CacheSize int           `mapstructure:"cache_size" toml:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" toml:"cache_ttl"`

	Compressor       string `mapstructure:"compressor" toml:"compressor"`
	CompressionLevel int    `mapstructure:"compression_level" toml:"compression_level"`

	BatchSize       int  `mapstructure:"batch_size" toml:"batch_size"`
	CreateIfMissing bool `mapstructure:"create_if_missing" toml:"create_if_missing"`
}

// DefaultConfig returns sensible defaults: a durable pebble store, LZ4
// compression, and a modestly sized read cache.
func DefaultConfig() *Config {
	return &Config{
		Backend:          "pebble",
		Path:             "./shamap-store",
		CacheSize:        4000,
		CacheTTL:         time.Hour,
		Compressor:       "lz4",
		CompressionLevel: 1,
		BatchSize:        256,
		CreateIfMissing:  true,
	}
}

// Validate reports whether c is internally consistent.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return errors.New("nodestore: backend must be specified")
	}
	if c.Backend != "memory" && c.Path == "" {
		return errors.New("nodestore: path must be specified for a persistent backend")
	}
	if c.CacheSize < 0 {
		return errors.New("nodestore: cache_size must be non-negative")
	}
	if c.CacheTTL < 0 {
		return errors.New("nodestore: cache_ttl must be non-negative")
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return errors.New("nodestore: compression_level must be between 0 and 9")
	}
	if c.BatchSize < 1 {
		return errors.New("nodestore: batch_size must be at least 1")
	}
	if !compression.IsAvailable(c.Compressor) {
		return fmt.Errorf("nodestore: unsupported compressor %q", c.Compressor)
	}
	return nil
}

// Option is a functional option for building a Config.
type Option func(*Config)

func WithPath(path string) Option          { return func(c *Config) { c.Path = path } }
func WithBackend(backend string) Option    { return func(c *Config) { c.Backend = backend } }
func WithCacheSize(size int) Option        { return func(c *Config) { c.CacheSize = size } }
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) { c.CacheTTL = ttl }
}
func WithCompression(name string, level int) Option {
	return func(c *Config) {
		c.Compressor = name
		c.CompressionLevel = level
	}
}
func WithBatchSize(size int) Option { return func(c *Config) { c.BatchSize = size } }
func WithCreateIfMissing(create bool) Option {
	return func(c *Config) { c.CreateIfMissing = create }
}

// ApplyOptions mutates c in place, in order.
func (c *Config) ApplyOptions(options ...Option) {
	for _, opt := range options {
		opt(c)
	}
}
