// Package setup registers the lite MCP server with desktop MCP clients and
// reports on the local installation.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	litecfg "github.com/food-health-score-server/internal/config"
)

// ServerName is the key the server is registered under in the client config.
const ServerName = "food-health-score"

// binaryName is the lite server executable looked up on PATH.
const binaryName = "mcp-server-lite"

// ClientConfig is the desktop client configuration file structure. Unknown
// top-level keys are preserved.
type ClientConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	Other      map[string]json.RawMessage `json:"-"`
}

// MCPServerConfig is a single MCP server entry.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// UnmarshalJSON keeps keys other than mcpServers.
func (c *ClientConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if servers, ok := raw["mcpServers"]; ok {
		if err := json.Unmarshal(servers, &c.MCPServers); err != nil {
			return fmt.Errorf("invalid mcpServers: %w", err)
		}
		delete(raw, "mcpServers")
	}
	c.Other = raw
	return nil
}

// MarshalJSON writes mcpServers alongside the preserved keys.
func (c ClientConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Other)+1)
	for k, v := range c.Other {
		out[k] = v
	}
	out["mcpServers"] = c.MCPServers
	return json.Marshal(out)
}

// Options controls client registration.
type Options struct {
	ConfigPath string // client config file; empty selects the platform default
	BinaryPath string // server binary; empty looks it up
	DataDir    string // FHS_DATA_DIR passed to the server
	LogLevel   string // FHS_LOG_LEVEL passed to the server
}

// DefaultClientConfigPath returns the Claude Desktop config file for this platform.
func DefaultClientConfigPath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "Claude", "claude_desktop_config.json"), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

func (o Options) configPath() (string, error) {
	if o.ConfigPath != "" {
		return o.ConfigPath, nil
	}
	return DefaultClientConfigPath()
}

// LoadClientConfig reads a client config; a missing file yields an empty one.
func LoadClientConfig(path string) (*ClientConfig, error) {
	config := &ClientConfig{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if config.MCPServers == nil {
		config.MCPServers = make(map[string]MCPServerConfig)
	}
	return config, nil
}

// SaveClientConfig writes a client config, creating its directory.
func SaveClientConfig(path string, config *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Register adds or replaces the server entry and returns the config path written.
func Register(opts Options) (string, error) {
	path, err := opts.configPath()
	if err != nil {
		return "", err
	}
	config, err := LoadClientConfig(path)
	if err != nil {
		return "", err
	}

	binary := opts.BinaryPath
	if binary == "" {
		if binary, err = findBinary(); err != nil {
			return "", fmt.Errorf("could not find server binary: %w", err)
		}
	}

	entry := MCPServerConfig{Command: binary, Env: map[string]string{}}
	if opts.DataDir != "" {
		entry.Env["FHS_DATA_DIR"] = opts.DataDir
	}
	if opts.LogLevel != "" {
		entry.Env["FHS_LOG_LEVEL"] = opts.LogLevel
	}
	config.MCPServers[ServerName] = entry

	return path, SaveClientConfig(path, config)
}

func findBinary() (string, error) {
	if path, err := exec.LookPath(binaryName); err == nil {
		return path, nil
	}
	if exe, err := os.Executable(); err == nil {
		return exe, nil
	}
	return "", fmt.Errorf("binary %q not found on PATH", binaryName)
}

// Status describes the local installation.
type Status struct {
	ConfigPath      string   `json:"config_path"`
	Registered      bool     `json:"registered"`
	BinaryPath      string   `json:"binary_path,omitempty"`
	BinaryFound     bool     `json:"binary_found"`
	DataDir         string   `json:"data_dir"`
	DataDirExists   bool     `json:"data_dir_exists"`
	PercentileStore bool     `json:"percentile_store"`
	Issues          []string `json:"issues,omitempty"`
}

// Healthy reports whether the server is registered with an existing binary.
func (s *Status) Healthy() bool {
	return s.Registered && s.BinaryFound
}

// GetStatus inspects the client config and the data directory.
func GetStatus(opts Options) *Status {
	status := &Status{}

	path, err := opts.configPath()
	if err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Could not determine client config path: %v", err))
	} else {
		status.ConfigPath = path
		config, err := LoadClientConfig(path)
		if err != nil {
			status.Issues = append(status.Issues, fmt.Sprintf("Could not load client config: %v", err))
		} else if entry, ok := config.MCPServers[ServerName]; ok {
			status.Registered = true
			status.BinaryPath = entry.Command
			if _, err := os.Stat(entry.Command); err == nil {
				status.BinaryFound = true
			} else {
				status.Issues = append(status.Issues, fmt.Sprintf("Server binary not found at: %s", entry.Command))
			}
			status.DataDir = entry.Env["FHS_DATA_DIR"]
		} else {
			status.Issues = append(status.Issues, "Server is not registered with the client")
		}
	}

	if opts.DataDir != "" {
		status.DataDir = opts.DataDir
	}
	if status.DataDir == "" {
		status.DataDir = litecfg.DefaultLiteConfig().DataDir
	}
	if _, err := os.Stat(status.DataDir); err == nil {
		status.DataDirExists = true
		lite := &litecfg.LiteConfig{DataDir: status.DataDir}
		if _, err := os.Stat(lite.PercentileDBPath()); err == nil {
			status.PercentileStore = true
		}
	}
	return status
}
