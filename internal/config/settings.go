package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings holds the server's tunables, read from a YAML file.
type Settings struct {
	Addr             string `yaml:"addr"`
	CommandDocument  string `yaml:"command_document"`
	BackendBaseURL   string `yaml:"backend_base_url"`
	BackendTimeoutMs int    `yaml:"backend_timeout_ms"`
}

// LoadSettings reads and parses the settings file, applying defaults for
// absent fields.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if s.CommandDocument == "" {
		s.CommandDocument = "configs/commands.json"
	}
	if s.BackendBaseURL == "" {
		s.BackendBaseURL = "http://localhost:9090"
	}
	if s.BackendTimeoutMs == 0 {
		s.BackendTimeoutMs = 30000
	}
	return &s, nil
}
