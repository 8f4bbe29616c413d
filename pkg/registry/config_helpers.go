package registry

import (
	"fmt"
	"os"
)

// GetString reads a string from cfg, falling back to defaultValue.
func GetString(cfg Config, key string, defaultValue string) string {
	if val, ok := cfg[key].(string); ok {
		return val
	}
	return defaultValue
}

// GetInt reads an int from cfg. JSON/YAML numbers arrive as float64, so
// both are accepted.
func GetInt(cfg Config, key string, defaultValue int) int {
	switch val := cfg[key].(type) {
	case int:
		return val
	case float64:
		return int(val)
	default:
		return defaultValue
	}
}

// GetFloat64 reads a float64 from cfg, accepting int too.
func GetFloat64(cfg Config, key string, defaultValue float64) float64 {
	switch val := cfg[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	default:
		return defaultValue
	}
}

// GetFloat32 reads a float32 from cfg, accepting float64 and int.
func GetFloat32(cfg Config, key string, defaultValue float32) float32 {
	switch val := cfg[key].(type) {
	case float64:
		return float32(val)
	case int:
		return float32(val)
	default:
		return defaultValue
	}
}

// GetBool reads a bool from cfg, falling back to defaultValue.
func GetBool(cfg Config, key string, defaultValue bool) bool {
	if val, ok := cfg[key].(bool); ok {
		return val
	}
	return defaultValue
}

// GetStringSlice reads a []string from cfg, tolerating []any as produced
// by YAML/JSON unmarshalling.
func GetStringSlice(cfg Config, key string, defaultValue []string) []string {
	switch val := cfg[key].(type) {
	case []string:
		return val
	case []any:
		result := make([]string, len(val))
		for i, item := range val {
			if s, ok := item.(string); ok {
				result[i] = s
			}
		}
		return result
	default:
		return defaultValue
	}
}

// RequireString reads a string that must be present and non-empty.
func RequireString(cfg Config, key string) (string, error) {
	val, ok := cfg[key].(string)
	if !ok || val == "" {
		return "", fmt.Errorf("required config key %q missing or empty", key)
	}
	return val, nil
}

// GetAPIKeyWithEnv reads an API key from cfg["api_key"], falling back to
// the named environment variable. component names the caller in the error.
func GetAPIKeyWithEnv(cfg Config, envVar string, component string) (string, error) {
	key := GetString(cfg, "api_key", "")
	if key == "" {
		key = os.Getenv(envVar)
	}
	if key == "" {
		return "", fmt.Errorf("%s requires 'api_key' configuration or %s environment variable", component, envVar)
	}
	return key, nil
}
