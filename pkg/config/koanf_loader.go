package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadProcessConfig loads process configuration with precedence:
// environment variables > YAML file > package defaults. Fields absent from
// both the file and the environment keep their package-default value,
// since koanf only unmarshals keys it actually loaded.
func LoadProcessConfig(configPath string) (*ProcessConfig, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: failed to load config file %s: %w", configPath, err)
		}
	}

	// SAQSHY_KV__URL -> kv.url (double underscore becomes dot, single
	// underscore preserved for multi-word keys like max_connections).
	err := k.Load(env.Provider("SAQSHY_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "SAQSHY_")
		s = strings.Replace(s, "__", ".", -1)
		s = strings.ToLower(s)
		return s
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: failed to load environment variables: %w", err)
	}

	out := Defaults()
	if err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal failed: %w", err)
	}

	v := validator.New()
	if err := v.Struct(&out); err != nil {
		return nil, fmt.Errorf("config: struct validation failed: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
