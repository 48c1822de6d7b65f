// Package cli implements shamapd's command-line interface: a small set
// of subcommands for inspecting and mutating a SHAMap backed by an
// on-disk node store, built with cobra the way the rest of this
// codebase's tooling is.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/shamapd/internal/config"
	"github.com/LeJamon/shamapd/internal/shamaplog"
)

var (
	configFile string
	debug      bool
	verbose    bool
	quiet      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "shamapd",
	Short: "Inspect and mutate a SHAMap-backed state tree",
	Long: `shamapd is a command-line tool for an authenticated, copy-on-write
radix-16 hash tree: it inserts, looks up and deletes items in, and
snapshots, flushes and verifies, a tree rooted at a 256-bit hash, backed
by a pluggable node store.`,
	Version: "0.1.0-dev",
}

// Execute runs the root command. Called once by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().String("store-path", "", "override the configured node store path")
	rootCmd.PersistentFlags().String("store-backend", "", "override the configured node store backend (memory, pebble, leveldb)")
}

func initConfig() {
	loaded, err := config.LoadConfig(config.Paths{Main: configFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	loaded.Debug = loaded.Debug || debug
	loaded.Verbose = loaded.Verbose || verbose
	loaded.Quiet = loaded.Quiet || quiet

	if path, _ := rootCmd.PersistentFlags().GetString("store-path"); path != "" {
		loaded.Store.Path = path
	}
	if backend, _ := rootCmd.PersistentFlags().GetString("store-backend"); backend != "" {
		loaded.Store.Backend = backend
	}

	switch {
	case loaded.Quiet:
		shamaplog.SetLevel(shamaplog.LevelQuiet)
	case loaded.Debug:
		shamaplog.SetLevel(shamaplog.LevelDebug)
	case loaded.Verbose:
		shamaplog.SetLevel(shamaplog.LevelVerbose)
	default:
		shamaplog.SetLevel(shamaplog.LevelInfo)
	}

	cfg = loaded
}
