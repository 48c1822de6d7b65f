package nodestore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidateRejectsUnknownCompressor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compressor = "bogus"
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRequiresPathForPersistentBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "pebble"
	cfg.Path = ""
	require.Error(t, cfg.Validate())
}

func TestConfigValidateAllowsEmptyPathForMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "memory"
	cfg.Path = ""
	require.NoError(t, cfg.Validate())
}

func TestApplyOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyOptions(
		WithBackend("memory"),
		WithCacheSize(10),
		WithCompression("none", 0),
	)
	require.Equal(t, "memory", cfg.Backend)
	require.Equal(t, 10, cfg.CacheSize)
	require.Equal(t, "none", cfg.Compressor)
	require.NoError(t, cfg.Validate())
}
