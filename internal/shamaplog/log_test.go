package shamaplog

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelInfo)

	SetLevel(LevelQuiet)
	Infof("should not appear")
	require.Empty(t, buf.String())

	SetLevel(LevelInfo)
	Infof("visible at info")
	require.True(t, strings.Contains(buf.String(), "visible at info"))

	buf.Reset()
	Debugf("hidden at info")
	require.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Debugf("visible at debug")
	require.True(t, strings.Contains(buf.String(), "visible at debug"))
}

func TestErrorfAlwaysLogs(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelInfo)

	SetLevel(LevelQuiet)
	Errorf("always shown")
	require.True(t, strings.Contains(buf.String(), "always shown"))
}
