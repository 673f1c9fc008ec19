package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"richinput/internal/config"
)

func TestFileReceivesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "richinput.log")
	log, closer, err := NewWithConsole(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, nil)
	require.NoError(t, err)

	log.Debug().Msg("[test] hidden")
	log.Info().Str("component", "editable").Msg("[test] shown")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "[test] shown", entry["message"])
	assert.Equal(t, "editable", entry["component"])
	assert.Equal(t, "info", entry["level"])
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := NewWithConsole(config.LogConfig{Level: "debug", Console: true}, &buf)
	require.NoError(t, err)
	log.Debug().Msg("[test] console")
	assert.Contains(t, buf.String(), "[test] console")
}

func TestRejectsUnknownLevel(t *testing.T) {
	_, _, err := NewWithConsole(config.LogConfig{Level: "loud"}, nil)
	assert.Error(t, err)
}

func TestNoWritersIsNop(t *testing.T) {
	log, closer, err := NewWithConsole(config.LogConfig{Level: "info"}, nil)
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
	assert.NoError(t, closer.Close())
}
