package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	vterrors "github.com/seasr/vtable/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. VTABLE_SNAPSHOT_ALGORITHM
const EnvPrefix = "VTABLE"

// Load reads the configuration at path over the defaults, applies
// VTABLE_* environment overrides and validates the result. An empty path
// loads the defaults and the environment only. ${VAR} references in the
// file are replaced with environment values before parsing.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Seed every key so AutomaticEnv can override it
	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return nil, vterrors.Wrap(err, vterrors.ErrorTypeInternal, "failed to encode default config")
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, vterrors.Wrap(err, vterrors.ErrorTypeInternal, "failed to read default config")
	}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
		if err != nil {
			return nil, vterrors.Wrap(err, vterrors.ErrorTypeConfig, "failed to read config file").
				WithDetail("path", path)
		}
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" && ext != "yml" {
			v.SetConfigType(ext)
		}
		if err := v.MergeConfig(strings.NewReader(substituteEnvVars(string(data)))); err != nil {
			return nil, vterrors.Wrap(err, vterrors.ErrorTypeConfig, "failed to parse config file").
				WithDetail("path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, vterrors.Wrap(err, vterrors.ErrorTypeConfig, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return vterrors.Wrap(err, vterrors.ErrorTypeInternal, "failed to marshal YAML")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return vterrors.Wrap(err, vterrors.ErrorTypeFile, "failed to write config file").
			WithDetail("path", path)
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}
