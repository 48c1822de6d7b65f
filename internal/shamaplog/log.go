// Package shamaplog provides the package-level logger used by the CLI:
// a thin level filter over
// the standard library's log.Logger, in keeping with the rest of this
// codebase's use of stdlib logging rather than a structured logging
// library.
package shamaplog

import (
	"io"
	"log"
	"os"
	"sync"
)

// Level controls which calls reach the underlying logger.
type Level int

const (
	LevelQuiet Level = iota
	LevelInfo
	LevelVerbose
	LevelDebug
)

var (
	mu     sync.RWMutex
	level  = LevelInfo
	logger = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLevel changes the active log level. Called once from the CLI's
// initConfig based on the --debug/--verbose/--quiet flags.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

func currentLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// Infof logs at the default level; suppressed only by --quiet.
func Infof(format string, args ...interface{}) {
	if currentLevel() >= LevelInfo {
		logger.Printf(format, args...)
	}
}

// Verbosef logs detail useful when following along with -v.
func Verbosef(format string, args ...interface{}) {
	if currentLevel() >= LevelVerbose {
		logger.Printf(format, args...)
	}
}

// Debugf logs the noisiest detail, gated by --debug.
func Debugf(format string, args ...interface{}) {
	if currentLevel() >= LevelDebug {
		logger.Printf(format, args...)
	}
}

// Errorf always logs, regardless of level.
func Errorf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

// Fatalf logs and exits the process, mirroring log.Fatalf.
func Fatalf(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}
