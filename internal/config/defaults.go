package config

import "github.com/spf13/viper"

// setDefaults installs the built-in defaults, matching nodestore.DefaultConfig.
func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", "pebble")
	v.SetDefault("store.path", "./shamap-store")
	v.SetDefault("store.cache_size", 4000)
	v.SetDefault("store.cache_ttl", "1h")
	v.SetDefault("store.compressor", "lz4")
	v.SetDefault("store.compression_level", 1)
	v.SetDefault("store.batch_size", 256)
	v.SetDefault("store.create_if_missing", true)

	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
}
