package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no
// explicit --config path is given.
const DefaultFileName = "netreserve.yaml"

// Load resolves path (empty means DefaultFileName in the working
// directory) and loads the configuration from it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
	}
	return LoadFile(path)
}

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDefaults()

	// The Go zero value cannot tell "absent" from "explicitly zero",
	// and an explicit zero sampling rate must be rejected rather than
	// silently bumped to the default.
	if cfg.Subnet.FlowSampling == 0 && !explicitlySet(rawConfig, "subnet", "flow_sampling") {
		cfg.Subnet.FlowSampling = DefaultFlowSampling
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// explicitlySet reports whether section.key appears in the raw YAML
// document.
func explicitlySet(rawConfig map[string]interface{}, section, key string) bool {
	sectionMap, ok := rawConfig[section].(map[string]interface{})
	if !ok {
		return false
	}
	_, set := sectionMap[key]
	return set
}
