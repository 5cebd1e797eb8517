package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "escoco.log")

	log, err := New(Options{FilePath: path})
	require.NoError(t, err)
	log.Named("assembly").Info("assembled segments")
	log.Debug("hidden at info level")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "assembled segments", entry["message"])
	assert.Equal(t, "assembly", entry["logger"])
	assert.Contains(t, entry, "timestamp")
}

func TestDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escoco.log")

	log, err := New(Options{FilePath: path, Debug: true})
	require.NoError(t, err)
	log.Debug("visible")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
}

func TestNoOutputsIsNop(t *testing.T) {
	log, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(0))
}
