package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  host: 0.0.0.0
  port: 9900
tools:
  stall_timeout: 90s
convert:
  max_retries: 5
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 9900, config.Server.Port)
	assert.Equal(t, 90*time.Second, config.Tools.StallTimeout)
	assert.Equal(t, 5, config.Convert.MaxRetries)

	// Untouched keys keep their defaults
	assert.Equal(t, 2*time.Second, config.Tools.SettleDelay)
	assert.True(t, config.Convert.AutoStart)
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 99999
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestLoadConfig_NegativeStallTimeout(t *testing.T) {
	path := writeConfigFile(t, `
tools:
  stall_timeout: -5s
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stall timeout")
}

func TestLoadConfig_NegativeRetries(t *testing.T) {
	path := writeConfigFile(t, `
convert:
  max_retries: -1
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	path := writeConfigFile(t, `
tools:
  dir: $HOME/.convertly/tools
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".convertly", "tools"), config.Tools.Dir)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x"), expandPath("~/x"))
	assert.Equal(t, filepath.Join(home, "y"), expandPath("$HOME/y"))
	assert.Equal(t, "/absolute/path", expandPath("/absolute/path"))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	original, err := LoadConfig(writeConfigFile(t, `
server:
  port: 9191
`))
	require.NoError(t, err)

	require.NoError(t, SaveConfig(original, path))

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, reloaded.Server.Port)
	assert.Equal(t, original.Tools.StallTimeout, reloaded.Tools.StallTimeout)
}
