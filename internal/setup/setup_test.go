package setup

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClientConfig_Missing(t *testing.T) {
	config, err := LoadClientConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.NotNil(t, config.MCPServers)
	assert.Empty(t, config.MCPServers)
}

func TestLoadClientConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadClientConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestRegister_PreservesOtherEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Claude", "claude_desktop_config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	existing := `{"theme":"dark","mcpServers":{"other":{"command":"/bin/other"}}}`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	binary := filepath.Join(dir, "mcp-server-lite")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755))

	written, err := Register(Options{
		ConfigPath: path,
		BinaryPath: binary,
		DataDir:    filepath.Join(dir, "data"),
		LogLevel:   "debug",
	})
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"dark"`, string(raw["theme"]))

	config, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Contains(t, config.MCPServers, "other")
	entry := config.MCPServers[ServerName]
	assert.Equal(t, binary, entry.Command)
	assert.Equal(t, filepath.Join(dir, "data"), entry.Env["FHS_DATA_DIR"])
	assert.Equal(t, "debug", entry.Env["FHS_LOG_LEVEL"])
}

func TestGetStatus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	dataDir := filepath.Join(dir, "data")

	t.Run("not registered", func(t *testing.T) {
		status := GetStatus(Options{ConfigPath: path, DataDir: dataDir})
		assert.False(t, status.Registered)
		assert.False(t, status.Healthy())
		assert.False(t, status.DataDirExists)
		assert.NotEmpty(t, status.Issues)
	})

	t.Run("registered with percentile store", func(t *testing.T) {
		binary := filepath.Join(dir, "mcp-server-lite")
		require.NoError(t, os.WriteFile(binary, nil, 0755))
		require.NoError(t, os.MkdirAll(dataDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, "percentiles.db"), nil, 0644))

		_, err := Register(Options{ConfigPath: path, BinaryPath: binary, DataDir: dataDir})
		require.NoError(t, err)

		status := GetStatus(Options{ConfigPath: path})
		assert.True(t, status.Healthy())
		assert.Equal(t, dataDir, status.DataDir)
		assert.True(t, status.DataDirExists)
		assert.True(t, status.PercentileStore)
		assert.Empty(t, status.Issues)
	})
}

func TestCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	binary := filepath.Join(dir, "server")
	require.NoError(t, os.WriteFile(binary, nil, 0755))

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := NewCommand(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run("validate", "--client-config", path)
	assert.EqualError(t, err, "setup is incomplete")
	assert.Contains(t, out, "not registered")

	out, err = run("client", "--client-config", path, "--binary", binary, "--data-dir", filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.Contains(t, out, "Registered food-health-score")
	assert.DirExists(t, filepath.Join(dir, "data"))

	out, err = run("status", "--client-config", path)
	require.NoError(t, err)
	var status Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.Registered)
	assert.Equal(t, binary, status.BinaryPath)

	out, err = run("validate", "--client-config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
}
