// Package assets loads the versioned scoring assets: the nutrient threshold table,
// the additive lexicon and the dietary keyword sets.
//
// Every asset can be supplied as a JSON or YAML file. When no path is configured the
// copy embedded in the binary is used; when a configured file cannot be read or fails
// validation the loader falls back to hardcoded defaults and logs a warning. Asset
// problems are never fatal to scoring.
package assets

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*
var embedded embed.FS

const (
	embeddedThresholds = "data/thresholds.json"
	embeddedAdditives  = "data/additives.json"
	embeddedDietary    = "data/dietary_keywords.yaml"
)

// Metadata identifies an asset version. ID and Version are stamped on every score.
type Metadata struct {
	ID          string `json:"id" yaml:"id"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// SetID returns the "id@version" stamp.
func (m Metadata) SetID() string {
	return fmt.Sprintf("%s@%s", m.ID, m.Version)
}

func (m Metadata) validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("metadata.id is required")
	}
	if strings.TrimSpace(m.Version) == "" {
		return fmt.Errorf("metadata.version is required")
	}
	return nil
}

// decode unmarshals data as YAML when name has a .yaml/.yml extension and as JSON otherwise.
func decode(name string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML asset %s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON asset %s: %w", name, err)
		}
	}
	return nil
}

func readFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read asset %s: %w", path, err)
	}
	return decode(path, data, v)
}

func readEmbedded(name string, v any) error {
	data, err := embedded.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read embedded asset %s: %w", name, err)
	}
	return decode(name, data, v)
}
