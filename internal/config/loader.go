package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Paths names the files LoadConfig reads from. Their values override
// the defaults and are overridden by environment variables.
type Paths struct {
	// Main is the primary TOML config file. Optional: if empty or
	// missing, defaults and environment variables still apply.
	Main string
}

// LoadConfig loads configuration from, in priority order:
//  1. Built-in defaults
//  2. A TOML config file, if paths.Main names one that exists
//  3. Environment variables prefixed SHAMAPD_ (e.g. SHAMAPD_STORE_BACKEND)
func LoadConfig(paths Paths) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if paths.Main != "" {
		if _, err := os.Stat(paths.Main); err == nil {
			v.SetConfigFile(paths.Main)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: reading %s: %w", paths.Main, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", paths.Main, err)
		}
	}

	v.SetEnvPrefix("SHAMAPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.configPath = paths.Main

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return &cfg, nil
}
