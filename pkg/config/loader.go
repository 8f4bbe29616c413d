package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GroupConfigFile is the on-disk shape for per-group overrides: a map from
// chat ID (as a string key, since YAML maps require string/int keys and
// Telegram-style chat IDs are large signed integers) to that chat's
// GroupConfig. In production this table lives in the external
// GroupConfigStore; this loader exists so
// cmd/saqshy run-local and tests can exercise per-group overrides without
// one.
type GroupConfigFile struct {
	Groups map[string]GroupConfig `yaml:"groups"`
}

// LoadGroupConfigs reads a YAML file of per-chat group overrides, merging
// each entry onto the package default so a file only needs to specify the
// fields it overrides.
func LoadGroupConfigs(path string) (map[string]GroupConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read group config file: %w", err)
	}

	// Each group is kept as a raw node and decoded onto a fresh default, so
	// a key the file omits (sandbox_enabled included) keeps its default.
	var file struct {
		Groups map[string]yaml.Node `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: failed to parse group config yaml: %w", err)
	}

	out := make(map[string]GroupConfig, len(file.Groups))
	for chatID, node := range file.Groups {
		merged := DefaultGroupConfig()
		if err := node.Decode(&merged); err != nil {
			return nil, fmt.Errorf("config: group %s: %w", chatID, err)
		}
		if err := merged.Validate(); err != nil {
			return nil, fmt.Errorf("config: group %s: %w", chatID, err)
		}
		out[chatID] = merged
	}
	return out, nil
}
